package cover

// EncodedImage is a ready-to-serve image payload. It is never modified after
// creation and is shared by pointer between the cache and every caller.
type EncodedImage struct {
	data     []byte
	mimeType string
}

// NewEncodedImage wraps data without copying it. The caller must not modify
// data afterwards.
func NewEncodedImage(data []byte, mimeType string) *EncodedImage {
	return &EncodedImage{data: data, mimeType: mimeType}
}

// Data returns the encoded bytes. The slice must be treated as read-only.
func (i *EncodedImage) Data() []byte { return i.data }

// MimeType returns the payload's MIME type.
func (i *EncodedImage) MimeType() string { return i.mimeType }

// Size returns the payload length in bytes.
func (i *EncodedImage) Size() int64 { return int64(len(i.data)) }
