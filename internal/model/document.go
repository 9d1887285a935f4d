package model

// Visibility is the retrieval scope of a document: global documents are
// visible to every thread, scoped documents only to the thread that owns
// them. The zero value is global.
type Visibility struct {
	threadID string
}

func GlobalVisibility() Visibility {
	return Visibility{}
}

func ScopedTo(threadID string) Visibility {
	return Visibility{threadID: threadID}
}

func (v Visibility) IsGlobal() bool {
	return v.threadID == ""
}

// ThreadID returns the owning thread and true for a scoped document.
func (v Visibility) ThreadID() (string, bool) {
	return v.threadID, v.threadID != ""
}

type Document struct {
	ID         string     `json:"id"`
	Filename   string     `json:"filename"`
	Content    string     `json:"content"`
	ByteSize   int64      `json:"byte_size"`
	MimeType   string     `json:"mime_type"`
	SourceURL  string     `json:"source_url"`
	Visibility Visibility `json:"-"`
	Ctime      int64      `json:"ctime"`
}
