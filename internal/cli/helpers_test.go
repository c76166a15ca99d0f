package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

const classMeta = `<?xml version="1.0" encoding="UTF-8"?>
<ApexClass xmlns="http://soap.sforce.com/2006/04/metadata">
    <apiVersion>60.0</apiVersion>
    <status>Active</status>
</ApexClass>
`

const fooManifest = `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://soap.sforce.com/2006/04/metadata">
    <types>
        <members>Foo</members>
        <name>ApexClass</name>
    </types>
    <version>60.0</version>
</Package>
`

// fakeService records calls and answers every status check with a fixed
// status.
type fakeService struct {
	mu         sync.Mutex
	apiVersion string

	deployed       int
	deployOpts     []sfmeta.DeployOptions
	deployStatus   sfmeta.DeployStatus
	canceled       []string
	ignoreCancel   bool
	retrieveReqs   []sfmeta.RetrieveRequest
	retrieveStatus sfmeta.RetrieveStatus
}

func newFakeService() *fakeService {
	return &fakeService{apiVersion: sfmeta.DefaultAPIVersion}
}

func (f *fakeService) Deploy(_ context.Context, _ []byte, opts sfmeta.DeployOptions) (sfmeta.AsyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployed++
	f.deployOpts = append(f.deployOpts, opts)
	return sfmeta.AsyncResult{ID: "0Af000000000001"}, nil
}

func (f *fakeService) CheckDeployStatus(_ context.Context, id string, _ bool) (sfmeta.DeployStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.deployStatus
	st.ID = id
	if st.Status == "" {
		st.Status = sfmeta.StatusInProgress
	}
	return st, nil
}

func (f *fakeService) CancelDeploy(_ context.Context, id string) (sfmeta.AsyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, id)
	if !f.ignoreCancel {
		f.deployStatus = sfmeta.DeployStatus{Status: sfmeta.StatusCanceled, Done: true}
	}
	return sfmeta.AsyncResult{ID: id}, nil
}

func (f *fakeService) Retrieve(_ context.Context, req sfmeta.RetrieveRequest) (sfmeta.AsyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieveReqs = append(f.retrieveReqs, req)
	return sfmeta.AsyncResult{ID: "09S000000000001"}, nil
}

func (f *fakeService) CheckRetrieveStatus(_ context.Context, id string, _ bool) (sfmeta.RetrieveStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.retrieveStatus
	st.ID = id
	return st, nil
}

func (f *fakeService) RetrieveMaxAPIVersion(context.Context) (string, error) { return "61.0", nil }

func (f *fakeService) APIVersion() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apiVersion
}

func (f *fakeService) SetAPIVersion(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiVersion = v
}

// useFakeService routes every connection to svc and forces plain progress.
func useFakeService(t *testing.T, svc *fakeService) {
	t.Helper()
	origService, origInteractive := newMetadataService, isInteractive
	t.Cleanup(func() { newMetadataService, isInteractive = origService, origInteractive })

	newMetadataService = func(*config.Settings, sfmeta.Logger) (sfmeta.RemoteMetadataService, error) {
		return svc, nil
	}
	isInteractive = func() bool { return false }
}

// newProject writes an sfdx project with one Apex class and isolates the
// test from the user's config and environment.
func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv(sfmeta.EnvConfigDir, t.TempDir())
	for _, key := range []string{sfmeta.EnvMDAPITempDir, sfmeta.EnvOrgAPIVersion, sfmeta.EnvDeploySizeThreshold, sfmeta.EnvPollErrorRetryLimit} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFileName),
		`{"packageDirectories": [{"path": "force-app", "default": true}], "sourceApiVersion": "60.0"}`)
	classes := filepath.Join(dir, "force-app", "main", "default", "classes")
	writeFile(t, filepath.Join(classes, "Foo.cls"), "public class Foo {}\n")
	writeFile(t, filepath.Join(classes, "Foo.cls-meta.xml"), classMeta)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// zipOf builds a base64 retrieve payload.
func zipOf(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// captureOutput redirects cmd's output for the rest of the test.
func captureOutput(t *testing.T, cmd *cobra.Command) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	return stdout, stderr
}
