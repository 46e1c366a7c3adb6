package takeout

import "strconv"

// Folder names for the non-year routes.
const (
	snapchatFolder = "Snapchat"
	unknownFolder  = "Unknown"
)

// FolderName maps a routing decision to its destination folder name.
// Pure: the same decision always yields the same name.
func FolderName(d Decision) string {
	switch d.Route {
	case RouteSnapchat:
		return snapchatFolder
	case RouteYear:
		return strconv.Itoa(d.Year)
	default:
		return unknownFolder
	}
}
