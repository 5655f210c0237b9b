package endpoints

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestRouteTable verifies every key maps to the expected path and kind.
func TestRouteTable(t *testing.T) {
	tests := []struct {
		name Name
		key  string
		path string
		kind Kind
	}{
		{Login, "login", "/auth/login/", KindAuth},
		{Logout, "logout", "/auth/logout/", KindAuth},
		{User, "user", "/auth/user/", KindAuth},
		{Registration, "registration", "/auth/registration/", KindAuth},
		{Tasks, "tasks", "/api/v1/tasks", KindAPI},
		{Detectors, "detectors", "/api/opentpod/v1/detectors", KindAPI},
		{DetectorDNNTypes, "detectorDnnTypes", "/api/opentpod/v1/detectors/types", KindAPI},
		{DNNTrainingConfigs, "dnnTrainingConfigs", "/api/opentpod/v1/detectors/training_configs", KindAPI},
		{Tensorboard, "tensorboard", "/api/opentpod/tensorboard/index.html", KindAPI},
		{DetectorDownloadField, "detectorDownloadField", "model", KindField},
		{DetectorVisualizationField, "detectorVisualizationField", "visualization", KindField},
		{Trainsets, "trainsets", "/api/opentpod/v1/trainsets", KindAPI},
		{MediaData, "mediaData", "/media/data/", KindMedia},
		{UIVideo, "uiVideo", "/video", KindUI},
		{UILabel, "uiLabel", "/label", KindUI},
		{UIAnnotate, "uiAnnotate", "/annotate", KindUI},
		{UIDetector, "uiDetector", "/detector", KindUI},
		{UIDetectorNew, "uiDetectorNew", "/detector-new", KindUI},
	}

	if len(tests) != len(All()) {
		t.Fatalf("Expected %d routes, table has %d", len(tests), len(All()))
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tt.name.String(); got != tt.key {
				t.Errorf("String() = %q, want %q", got, tt.key)
			}
			if got := tt.name.Path(); got != tt.path {
				t.Errorf("Path() = %q, want %q", got, tt.path)
			}
			if got := tt.name.Kind(); got != tt.kind {
				t.Errorf("Kind() = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestExactlyEighteenKeys(t *testing.T) {
	m := Map()
	if len(m) != 18 {
		t.Errorf("Expected 18 keys, got %d", len(m))
	}

	seen := make(map[string]bool)
	for _, n := range All() {
		if seen[n.String()] {
			t.Errorf("Duplicate key %q", n)
		}
		seen[n.String()] = true
	}
}

func TestPathInvariants(t *testing.T) {
	for _, n := range All() {
		p := n.Path()
		if p == "" {
			t.Errorf("%s: empty path", n)
			continue
		}
		if n.Kind() == KindField {
			if strings.Contains(p, "/") {
				t.Errorf("%s: field name %q must not contain '/'", n, p)
			}
			continue
		}
		if !strings.HasPrefix(p, "/") {
			t.Errorf("%s: path %q does not start with '/'", n, p)
		}
	}
}

func TestRepeatedReadsAreStable(t *testing.T) {
	for _, n := range All() {
		if n.Path() != n.Path() {
			t.Errorf("%s: path changed between reads", n)
		}
	}

	m := Map()
	m["tasks"] = "/tampered"
	if Tasks.Path() != "/api/v1/tasks" {
		t.Error("Mutating Map() result changed the table")
	}

	all := All()
	all[0] = UIDetectorNew
	if All()[0] != Login {
		t.Error("Mutating All() result changed the table")
	}
}

func TestScenarios(t *testing.T) {
	if got := Tasks.Path(); got != "/api/v1/tasks" {
		t.Errorf("Tasks.Path() = %q", got)
	}
	if got := UIDetectorNew.Path(); got != "/detector-new" {
		t.Errorf("UIDetectorNew.Path() = %q", got)
	}
}

func TestPageSize(t *testing.T) {
	if PageSize != 2 {
		t.Errorf("Expected PageSize to be 2, got %d", PageSize)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total    int
		expected int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{5, 3},
		{6, 3},
	}

	for _, tt := range tests {
		if got := PageCount(tt.total); got != tt.expected {
			t.Errorf("PageCount(%d) = %d, want %d", tt.total, got, tt.expected)
		}
	}

	if got := PageCountFor(10, 0); got != 0 {
		t.Errorf("PageCountFor(10, 0) = %d, want 0", got)
	}
	if got := PageCountFor(101, 10); got != 11 {
		t.Errorf("PageCountFor(101, 10) = %d, want 11", got)
	}
}

func TestParse(t *testing.T) {
	for _, n := range All() {
		got, err := Parse(n.String())
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", n, err)
			continue
		}
		if got != n {
			t.Errorf("Parse(%q) = %v, want %v", n, got, n)
		}
	}

	for _, key := range []string{"", "Tasks", "task", "uiDetector-new"} {
		if _, err := Parse(key); !errors.Is(err, ErrUnknownEndpoint) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownEndpoint", key, err)
		}
	}
}

func TestInvalidName(t *testing.T) {
	n := Name(99)
	if n.Valid() {
		t.Error("Name(99) should not be valid")
	}
	if n.Path() != "" {
		t.Errorf("Name(99).Path() = %q, want empty", n.Path())
	}
	if n.String() != "Name(99)" {
		t.Errorf("Name(99).String() = %q", n.String())
	}
	if _, err := n.MarshalText(); !errors.Is(err, ErrUnknownEndpoint) {
		t.Errorf("MarshalText error = %v, want ErrUnknownEndpoint", err)
	}
}

func TestJSONKeys(t *testing.T) {
	data, err := json.Marshal(struct {
		Route Name `json:"route"`
	}{Route: DetectorDNNTypes})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"route":"detectorDnnTypes"}` {
		t.Errorf("Unexpected JSON: %s", data)
	}

	var decoded struct {
		Route Name `json:"route"`
	}
	if err := json.Unmarshal([]byte(`{"route":"trainsets"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Route != Trainsets {
		t.Errorf("Decoded %v, want %v", decoded.Route, Trainsets)
	}

	if err := json.Unmarshal([]byte(`{"route":"nope"}`), &decoded); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestOfKind(t *testing.T) {
	ui := OfKind(KindUI)
	if len(ui) != 5 {
		t.Errorf("Expected 5 UI routes, got %d", len(ui))
	}
	fields := OfKind(KindField)
	if len(fields) != 2 || fields[0] != DetectorDownloadField || fields[1] != DetectorVisualizationField {
		t.Errorf("Unexpected field routes: %v", fields)
	}

	total := 0
	for _, k := range []Kind{KindAuth, KindAPI, KindMedia, KindField, KindUI} {
		total += len(OfKind(k))
	}
	if total != len(All()) {
		t.Errorf("Kinds cover %d routes, want %d", total, len(All()))
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("ui"); err != nil || k != KindUI {
		t.Errorf("ParseKind(ui) = %q, %v", k, err)
	}
	if _, err := ParseKind("web"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestDetectorFieldURL(t *testing.T) {
	url, err := DetectorFieldURL(7, DetectorDownloadField)
	if err != nil {
		t.Fatalf("DetectorFieldURL failed: %v", err)
	}
	if url != "/api/opentpod/v1/detectors/7/model" {
		t.Errorf("Unexpected URL %q", url)
	}

	url, err = DetectorFieldURL(3, DetectorVisualizationField)
	if err != nil || url != "/api/opentpod/v1/detectors/3/visualization" {
		t.Errorf("Unexpected result %q, %v", url, err)
	}

	if _, err := DetectorFieldURL(1, Tasks); err == nil {
		t.Error("Expected error for non-field route")
	}
}

func TestMediaURL(t *testing.T) {
	if got := MediaURL("/12/0/0.jpg"); got != "/media/data/12/0/0.jpg" {
		t.Errorf("MediaURL = %q", got)
	}
	if got := MediaURL("x.mp4"); got != "/media/data/x.mp4" {
		t.Errorf("MediaURL = %q", got)
	}
}
