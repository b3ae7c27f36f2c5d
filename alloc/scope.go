package alloc

// Scope tags the memory source a buffer came from and decides who releases it and when.
type Scope uint8

const (
	// Invalid is the zero Scope; allocating with it fails.
	Invalid Scope = iota
	// Ephemeral memory is reclaimed when its Frame ends.
	Ephemeral
	// TaskScoped memory lives until a set of tasks has completed.
	TaskScoped
	// Persistent memory lives until it is released explicitly.
	Persistent
)

func (s Scope) String() string {
	switch s {
	case Ephemeral:
		return "ephemeral"
	case TaskScoped:
		return "task-scoped"
	case Persistent:
		return "persistent"
	default:
		return "invalid"
	}
}

// Valid reports whether s is one of the recognized scopes.
func (s Scope) Valid() bool {
	return s >= Ephemeral && s <= Persistent
}

// ManualRelease reports whether buffers of scope s are released by their owner.
func (s Scope) ManualRelease() bool {
	return s == TaskScoped || s == Persistent
}
