package util

// DateStamp is the compact date used in exported object names.
const DateStamp = "20060102"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	ChannelSync     = "sync"
	ChannelRealtime = "realtime"
)

const MimeJSON = "application/json"
