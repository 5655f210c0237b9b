// Package endpoints holds the route table shared by the OpenTPOD frontend and
// backend: every named API and UI path the client may request, plus the page
// size used by paginated list responses.
//
// The key set is closed. Code refers to routes through the Name constants, so a
// misspelled route fails to compile instead of producing a broken URL at runtime.
package endpoints

import (
	"errors"
	"fmt"
	"strings"
)

// PageSize is the number of items the backend returns per page of a list
// response. It must equal PAGE_SIZE in the backend's REST framework settings;
// drift is detected at startup by the drift package.
const PageSize = 2

// ErrUnknownEndpoint is returned when a string key does not name a route.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Name identifies one entry of the route table.
type Name int

// Route table entries.
const (
	Login Name = iota
	Logout
	User
	Registration
	Tasks
	Detectors
	DetectorDNNTypes
	DNNTrainingConfigs
	Tensorboard
	DetectorDownloadField
	DetectorVisualizationField
	Trainsets
	MediaData

	// Routes handled by the frontend router.
	UIVideo
	UILabel
	UIAnnotate
	UIDetector
	UIDetectorNew

	numNames
)

// Kind classifies a route table entry.
type Kind string

const (
	// KindAuth is an authentication endpoint served by the backend.
	KindAuth Kind = "auth"

	// KindAPI is a REST resource served by the backend.
	KindAPI Kind = "api"

	// KindMedia is a URL prefix for files served by the backend.
	KindMedia Kind = "media"

	// KindField is a sub-resource name appended to a detector URL, not a path.
	KindField Kind = "field"

	// KindUI is a route handled by the frontend router.
	KindUI Kind = "ui"
)

type entry struct {
	key  string
	path string
	kind Kind
}

var table = [numNames]entry{
	Login:                      {"login", "/auth/login/", KindAuth},
	Logout:                     {"logout", "/auth/logout/", KindAuth},
	User:                       {"user", "/auth/user/", KindAuth},
	Registration:               {"registration", "/auth/registration/", KindAuth},
	Tasks:                      {"tasks", "/api/v1/tasks", KindAPI},
	Detectors:                  {"detectors", "/api/opentpod/v1/detectors", KindAPI},
	DetectorDNNTypes:           {"detectorDnnTypes", "/api/opentpod/v1/detectors/types", KindAPI},
	DNNTrainingConfigs:         {"dnnTrainingConfigs", "/api/opentpod/v1/detectors/training_configs", KindAPI},
	Tensorboard:                {"tensorboard", "/api/opentpod/tensorboard/index.html", KindAPI},
	DetectorDownloadField:      {"detectorDownloadField", "model", KindField},
	DetectorVisualizationField: {"detectorVisualizationField", "visualization", KindField},
	Trainsets:                  {"trainsets", "/api/opentpod/v1/trainsets", KindAPI},
	MediaData:                  {"mediaData", "/media/data/", KindMedia},
	UIVideo:                    {"uiVideo", "/video", KindUI},
	UILabel:                    {"uiLabel", "/label", KindUI},
	UIAnnotate:                 {"uiAnnotate", "/annotate", KindUI},
	UIDetector:                 {"uiDetector", "/detector", KindUI},
	UIDetectorNew:              {"uiDetectorNew", "/detector-new", KindUI},
}

var byKey = func() map[string]Name {
	m := make(map[string]Name, numNames)
	for n := Name(0); n < numNames; n++ {
		m[table[n].key] = n
	}
	return m
}()

// Valid reports whether n is one of the declared constants.
func (n Name) Valid() bool {
	return n >= 0 && n < numNames
}

// String returns the logical key of the route, e.g. "detectorDnnTypes".
func (n Name) String() string {
	if !n.Valid() {
		return fmt.Sprintf("Name(%d)", int(n))
	}
	return table[n].key
}

// Path returns the path string of the route. For KindField entries this is the
// bare field name.
func (n Name) Path() string {
	if !n.Valid() {
		return ""
	}
	return table[n].path
}

// Kind returns the classification of the route.
func (n Name) Kind() Kind {
	if !n.Valid() {
		return ""
	}
	return table[n].kind
}

// MarshalText encodes the name as its logical key.
func (n Name) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEndpoint, int(n))
	}
	return []byte(table[n].key), nil
}

// UnmarshalText decodes a logical key.
func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Parse looks up a route by its logical key. Keys are case sensitive.
func Parse(key string) (Name, error) {
	if n, ok := byKey[key]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEndpoint, key)
}

// All returns every route in declaration order. The slice is a copy.
func All() []Name {
	names := make([]Name, 0, numNames)
	for n := Name(0); n < numNames; n++ {
		names = append(names, n)
	}
	return names
}

// OfKind returns the routes of kind k in declaration order.
func OfKind(k Kind) []Name {
	var names []Name
	for n := Name(0); n < numNames; n++ {
		if table[n].kind == k {
			names = append(names, n)
		}
	}
	return names
}

// Map returns the table as a key to path map, the shape the frontend consumes.
func Map() map[string]string {
	m := make(map[string]string, numNames)
	for n := Name(0); n < numNames; n++ {
		m[table[n].key] = table[n].path
	}
	return m
}

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindAuth, KindAPI, KindMedia, KindField, KindUI:
		return k, nil
	}
	return "", fmt.Errorf("unknown endpoint kind %q", s)
}

// DetectorURL returns the URL of a single detector resource.
func DetectorURL(id int) string {
	return fmt.Sprintf("%s/%d", Detectors.Path(), id)
}

// DetectorFieldURL returns the URL of a detector sub-resource such as the
// trained model download. field must be a KindField route.
func DetectorFieldURL(id int, field Name) (string, error) {
	if field.Kind() != KindField {
		return "", fmt.Errorf("%s is not a detector field", field)
	}
	return DetectorURL(id) + "/" + field.Path(), nil
}

// MediaURL joins a relative media file path onto the media prefix.
func MediaURL(rel string) string {
	return MediaData.Path() + strings.TrimLeft(rel, "/")
}

// PageCount returns how many pages of PageSize items hold total items.
func PageCount(total int) int {
	return PageCountFor(total, PageSize)
}

// PageCountFor is PageCount for an arbitrary page size. A non-positive size
// yields zero pages.
func PageCountFor(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
