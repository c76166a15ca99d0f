package sfmeta_test

import (
	"errors"
	"testing"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

func TestDeployOptions_Validate(t *testing.T) {
	tests := []struct {
		name       string
		opts       sfmeta.DeployOptions
		apiVersion string
		hasDeletes bool
		wantError  bool
	}{
		{name: "defaults", opts: sfmeta.DefaultDeployOptions(), apiVersion: "60.0"},
		{
			name:       "specified tests",
			opts:       sfmeta.DeployOptions{TestLevel: sfmeta.TestLevelRunSpecifiedTests, RunTests: []string{"MyTest"}},
			apiVersion: "60.0",
		},
		{
			name:       "specified tests without names",
			opts:       sfmeta.DeployOptions{TestLevel: sfmeta.TestLevelRunSpecifiedTests},
			apiVersion: "60.0",
			wantError:  true,
		},
		{
			name:       "run tests without specified level",
			opts:       sfmeta.DeployOptions{TestLevel: sfmeta.TestLevelRunLocalTests, RunTests: []string{"MyTest"}},
			apiVersion: "60.0",
			wantError:  true,
		},
		{
			name:       "relevant tests on old api",
			opts:       sfmeta.DeployOptions{TestLevel: sfmeta.TestLevelRunRelevantTests},
			apiVersion: "65.0",
			wantError:  true,
		},
		{
			name:       "relevant tests on supported api",
			opts:       sfmeta.DeployOptions{TestLevel: sfmeta.TestLevelRunRelevantTests},
			apiVersion: "66.0",
		},
		{
			name:       "purge without deletes",
			opts:       sfmeta.DeployOptions{PurgeOnDelete: true},
			apiVersion: "60.0",
			wantError:  true,
		},
		{
			name:       "purge with deletes",
			opts:       sfmeta.DeployOptions{PurgeOnDelete: true},
			apiVersion: "60.0",
			hasDeletes: true,
		},
		{
			name:       "unknown test level",
			opts:       sfmeta.DeployOptions{TestLevel: "RunSomeTests"},
			apiVersion: "60.0",
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate(tt.apiVersion, tt.hasDeletes)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, sfmeta.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestStatusTerminalState(t *testing.T) {
	deploy := sfmeta.DeployStatus{Done: true, Status: sfmeta.StatusCanceled}
	if !deploy.IsDone() || !deploy.IsCanceled() {
		t.Errorf("expected canceled deploy to be done and canceled")
	}

	retrieve := sfmeta.RetrieveStatus{Status: sfmeta.StatusInProgress}
	if retrieve.IsDone() || retrieve.IsCanceled() {
		t.Errorf("expected in-progress retrieve to be neither done nor canceled")
	}
}

func TestPackage_Members(t *testing.T) {
	pkg := sfmeta.Package{Types: []sfmeta.PackageTypeMembers{{Name: "ApexClass", Members: []string{"A", "B"}}}}
	if got := pkg.Members("ApexClass"); len(got) != 2 {
		t.Errorf("Members(ApexClass) = %v", got)
	}
	if got := pkg.Members("CustomObject"); got != nil {
		t.Errorf("Members(CustomObject) = %v, want nil", got)
	}
}
