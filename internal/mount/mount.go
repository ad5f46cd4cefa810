// Package mount joins component route paths onto a host base path.
package mount

import "strings"

// Join returns routePath under basePath with exactly one slash between
// segments and none trailing. An empty route mounts at the base itself.
//
//	Join("/admin/", "register") == "/admin/register"
//	Join("", "")                == "/"
func Join(basePath, routePath string) string {
	base := strings.Trim(strings.TrimSpace(basePath), "/")
	route := strings.Trim(strings.TrimSpace(routePath), "/")
	switch {
	case base == "" && route == "":
		return "/"
	case base == "":
		return "/" + route
	case route == "":
		return "/" + base
	}
	return "/" + base + "/" + route
}
