package config

// PersistenceOptions selects and configures the snapshot storage backend.
// An empty Namespace means persistence stays disabled until configured.
type PersistenceOptions struct {
	Namespace string // key the snapshot is stored under
	Backend   string // backend kind: memory, billy or minio
	Dir       string // billy: root directory on disk; empty keeps snapshots in memory
	Compress  bool   // zstd-compress snapshot blobs

	// MinIO / S3 settings
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string // optional object key prefix
}

// MountOptions holds high-level settings for the read-only FUSE view.
// No go-fuse types are exposed here.
type MountOptions struct {
	Debug  bool   // fuse debug logs
	FsName string // mount's FsName
	Name   string // mount's Name
}
