package domain

// FolderAction is a confirmed bulk operation on a library folder.
// The set of implementations is closed: TagAllAction, RemoveFolderAction
// and MarkAllAction.
type FolderAction interface {
	isFolderAction()
}

// TagAllAction tags every video under FolderPath.
type TagAllAction struct {
	FolderPath string
	TagName    string
}

// RemoveFolderAction removes a folder and every video under it.
type RemoveFolderAction struct {
	FolderID int64
}

// MarkAllAction bulk changes the watch state under FolderPath.
type MarkAllAction struct {
	FolderPath string
	Target     WatchTarget
}

func (TagAllAction) isFolderAction()       {}
func (RemoveFolderAction) isFolderAction() {}
func (MarkAllAction) isFolderAction()      {}

// ActionResult reports how many videos an action touched.
type ActionResult struct {
	Affected int `json:"affected"`
}
