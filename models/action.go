package models

// Verb is what the operator asks for on a displayed draft.
type Verb int

const (
	RegeneratePhoto Verb = iota + 1
	RegenerateText
	Publish
)

func (v Verb) String() string {
	switch v {
	case RegeneratePhoto:
		return "photo"
	case RegenerateText:
		return "text"
	case Publish:
		return "publish"
	default:
		return ""
	}
}

// Action is a stateless operator request. It carries everything needed to recompute a draft part.
type Action struct {
	Verb    Verb
	Key     DraftKey
	Variant Variant
}
