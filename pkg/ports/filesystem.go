package ports

// FileSystem is where a run leaves its artifacts: the encoded container,
// exported PNG frames and the Markdown summary.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile creates missing parent directories. A reader of path sees
	// either the previous contents or data, never a partial write.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error
}
