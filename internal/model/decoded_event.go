package model

// Arg is one decoded event parameter.
type Arg struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// DecodedEvent is the decoded form of a RawLog, with arguments in declaration order.
type DecodedEvent struct {
	Name string `json:"name"`
	Args []Arg  `json:"args"`
}

// Arg returns the argument with the given name.
func (e DecodedEvent) Arg(name string) (Arg, bool) {
	for _, arg := range e.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	return Arg{}, false
}
