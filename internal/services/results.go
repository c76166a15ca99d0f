package services

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/diff"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// ComponentState is the outcome reported for one file.
type ComponentState string

const (
	StateCreated   ComponentState = "Created"
	StateChanged   ComponentState = "Changed"
	StateUnchanged ComponentState = "Unchanged"
	StateDeleted   ComponentState = "Deleted"
	StateFailed    ComponentState = "Failed"
)

// FileResponse is the per-file result of a deploy or retrieve. Error,
// ProblemType, LineNumber and ColumnNumber are only set when State is
// StateFailed.
type FileResponse struct {
	FullName string         `json:"fullName"`
	Type     string         `json:"type"`
	State    ComponentState `json:"state"`
	FilePath string         `json:"filePath,omitempty"`

	Error        string `json:"error,omitempty"`
	ProblemType  string `json:"problemType,omitempty"`
	LineNumber   int    `json:"lineNumber,omitempty"`
	ColumnNumber int    `json:"columnNumber,omitempty"`
}

// DeployResult pairs a terminal deploy status with the deployed set.
type DeployResult struct {
	Response   sfmeta.DeployStatus
	Components *components.ComponentSet

	once  sync.Once
	files []FileResponse
}

// NewDeployResult wraps status. set may be nil for a deploy of a prebuilt zip.
func NewDeployResult(status sfmeta.DeployStatus, set *components.ComponentSet) *DeployResult {
	return &DeployResult{Response: status, Components: set}
}

// GetFileResponses flattens the component messages into one response per
// local file. The list is computed on first use and cached.
func (r *DeployResult) GetFileResponses() []FileResponse {
	r.once.Do(func() { r.files = r.fileResponses() })
	return r.files
}

func (r *DeployResult) fileResponses() []FileResponse {
	byKey := make(map[components.Key]*components.SourceComponent)
	if r.Components != nil {
		for c := range r.Components.GetSourceComponents() {
			byKey[c.Key()] = c
		}
		for _, c := range r.Components.DeletedComponents() {
			byKey[c.Key()] = c
		}
	}

	var out []FileResponse
	messages := append(append([]sfmeta.DeployMessage(nil),
		r.Response.Details.ComponentSuccesses...), r.Response.Details.ComponentFailures...)
	for _, m := range messages {
		if m.FullName == sfmeta.ManifestFileName || m.ComponentType == "" {
			continue
		}
		c := byKey[components.NewKey(m.ComponentType, m.FullName)]

		if !m.Success && m.Problem != "" {
			out = append(out, FileResponse{
				FullName:     m.FullName,
				Type:         m.ComponentType,
				State:        StateFailed,
				FilePath:     failurePath(c),
				Error:        m.Problem,
				ProblemType:  m.ProblemType,
				LineNumber:   m.LineNumber,
				ColumnNumber: m.ColumnNumber,
			})
			continue
		}

		state := deployState(m)
		files := filesOf(c)
		if len(files) == 0 || state == StateDeleted {
			out = append(out, FileResponse{FullName: m.FullName, Type: m.ComponentType, State: state, FilePath: firstOf(files)})
			continue
		}
		for _, f := range files {
			out = append(out, FileResponse{FullName: m.FullName, Type: m.ComponentType, State: state, FilePath: f})
		}
	}
	return out
}

func deployState(m sfmeta.DeployMessage) ComponentState {
	switch {
	case m.Deleted:
		return StateDeleted
	case m.Created:
		return StateCreated
	case m.Changed:
		return StateChanged
	}
	return StateUnchanged
}

// failurePath points a failure at the content file when there is one.
func failurePath(c *components.SourceComponent) string {
	if c == nil {
		return ""
	}
	if c.Content != "" && c.Tree != nil && !c.Tree.IsDirectory(c.Content) {
		return c.Content
	}
	return c.XML
}

func filesOf(c *components.SourceComponent) []string {
	if c == nil {
		return nil
	}
	files, err := c.Files()
	if err != nil {
		return nil
	}
	return files
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// RetrieveResult pairs a terminal retrieve status with the components
// written locally.
type RetrieveResult struct {
	Response   sfmeta.RetrieveStatus
	Components *components.ComponentSet

	// Changes and Deleted come from a merge into existing source.
	Changes []convert.FileChange
	Deleted []string
	Diffs   []diff.FileDiff

	once  sync.Once
	files []FileResponse
}

// NewRetrieveResult wraps status and the locally written components.
func NewRetrieveResult(status sfmeta.RetrieveStatus, set *components.ComponentSet, conv *convert.Result) *RetrieveResult {
	r := &RetrieveResult{Response: status, Components: set}
	if conv != nil {
		r.Changes = conv.Changes
		r.Deleted = conv.Deleted
		r.Diffs = conv.Diffs
	}
	return r
}

// GetFileResponses lists one response per written file plus one failure per
// retrieve message. The list is computed on first use and cached.
func (r *RetrieveResult) GetFileResponses() []FileResponse {
	r.once.Do(func() { r.files = r.fileResponses() })
	return r.files
}

func (r *RetrieveResult) fileResponses() []FileResponse {
	states := make(map[string]ComponentState, len(r.Changes))
	for _, ch := range r.Changes {
		states[ch.Path] = ComponentState(ch.Status)
	}

	var out []FileResponse
	if r.Components != nil {
		for c := range r.Components.GetSourceComponents() {
			for _, f := range filesOf(c) {
				state, ok := states[f]
				if !ok {
					state = StateCreated
				}
				out = append(out, FileResponse{FullName: c.FullName, Type: c.Type.Name, State: state, FilePath: f})
			}
		}
	}

	deleted := append([]string(nil), r.Deleted...)
	sort.Strings(deleted)
	for _, path := range deleted {
		resp := FileResponse{State: StateDeleted, FilePath: path}
		for _, ch := range r.Changes {
			if ch.Path == path {
				resp.FullName, resp.Type = ch.FullName, ch.Type
				break
			}
		}
		out = append(out, resp)
	}

	for _, m := range r.Response.Messages {
		out = append(out, retrieveFailure(m))
	}
	return out
}

var missingEntity = regexp.MustCompile(`Entity of type '([^']+)' named '([^']+)' cannot be found`)

// retrieveFailure names the component a retrieve message is about when the
// problem text identifies it.
func retrieveFailure(m sfmeta.RetrieveMessage) FileResponse {
	resp := FileResponse{State: StateFailed, Error: m.Problem, ProblemType: "Error", FullName: m.FileName}
	if match := missingEntity.FindStringSubmatch(m.Problem); match != nil {
		resp.Type, resp.FullName = match[1], match[2]
		return resp
	}
	if strings.HasPrefix(m.Problem, "Warning") {
		resp.ProblemType = "Warning"
	}
	return resp
}
