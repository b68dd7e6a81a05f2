package ora

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event names emitted by the ORA prompt and callback contracts.
const (
	EventPromptRequest    = "promptRequest"
	EventAICallbackResult = "AICallbackResult"
)

const oraABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "requestId", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "modelId", "type": "uint256"},
      {"indexed": false, "internalType": "string", "name": "prompt", "type": "string"}
    ],
    "name": "promptRequest",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "address", "type": "address"},
      {"indexed": true, "internalType": "uint256", "name": "requestID", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "invoker", "type": "address"},
      {"indexed": false, "internalType": "bytes", "name": "output", "type": "bytes"}
    ],
    "name": "AICallbackResult",
    "type": "event"
  }
]`

var (
	oraABI     abi.ABI
	oraABIOnce sync.Once
	oraABIErr  error
)

// ABI returns the parsed ORA events ABI.
func ABI() (abi.ABI, error) {
	oraABIOnce.Do(func() {
		oraABI, oraABIErr = abi.JSON(strings.NewReader(oraABIJSON))
	})
	return oraABI, oraABIErr
}
