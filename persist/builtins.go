package persist

type BuiltInBackendType = string

const (
	MemoryBackendType BuiltInBackendType = "memory"
	BillyBackendType  BuiltInBackendType = "billy"
	MinioBackendType  BuiltInBackendType = "minio"
)

// RegisterBuiltins registers all built-in backends by default
// or only the specific ones if kinds are provided
func RegisterBuiltins(kinds ...BuiltInBackendType) {
	if len(kinds) == 0 {
		kinds = append(kinds, MemoryBackendType, BillyBackendType, MinioBackendType)
	}

	for _, kind := range kinds {
		switch kind {
		case MemoryBackendType:
			Register(MemoryBackendType, newMemoryFromOptions)
		case BillyBackendType:
			Register(BillyBackendType, newBillyFromOptions)
		case MinioBackendType:
			Register(MinioBackendType, newMinioFromOptions)
		}
	}
}
