package sfmeta

import (
	"errors"
	"fmt"
	"strconv"
)

// TestLevel selects which Apex tests run during a deploy.
type TestLevel string

const (
	TestLevelNoTestRun         TestLevel = "NoTestRun"
	TestLevelRunSpecifiedTests TestLevel = "RunSpecifiedTests"
	TestLevelRunLocalTests     TestLevel = "RunLocalTests"
	TestLevelRunAllTestsInOrg  TestLevel = "RunAllTestsInOrg"
	TestLevelRunRelevantTests  TestLevel = "RunRelevantTests"
)

// minRelevantTestsAPIVersion is the first API version that accepts RunRelevantTests.
const minRelevantTestsAPIVersion = 66.0

// DeployOptions mirrors the metadata API deployOptions element.
type DeployOptions struct {
	AllowMissingFiles bool      `xml:"allowMissingFiles" json:"allowMissingFiles,omitempty"`
	AutoUpdatePackage bool      `xml:"autoUpdatePackage" json:"autoUpdatePackage,omitempty"`
	CheckOnly         bool      `xml:"checkOnly" json:"checkOnly,omitempty"`
	IgnoreWarnings    bool      `xml:"ignoreWarnings" json:"ignoreWarnings,omitempty"`
	PerformRetrieve   bool      `xml:"performRetrieve" json:"performRetrieve,omitempty"`
	PurgeOnDelete     bool      `xml:"purgeOnDelete" json:"purgeOnDelete,omitempty"`
	RollbackOnError   bool      `xml:"rollbackOnError" json:"rollbackOnError"`
	RunTests          []string  `xml:"runTests,omitempty" json:"runTests,omitempty"`
	SinglePackage     bool      `xml:"singlePackage" json:"singlePackage"`
	TestLevel         TestLevel `xml:"testLevel,omitempty" json:"testLevel,omitempty"`
}

// DefaultDeployOptions returns the options used when a caller supplies none.
func DefaultDeployOptions() DeployOptions {
	return DeployOptions{RollbackOnError: true, SinglePackage: true}
}

// Validate checks option combinations the remote service would reject.
// apiVersion is the version the deploy will be submitted with; hasDeletes
// reports whether the payload carries destructive changes.
func (o DeployOptions) Validate(apiVersion string, hasDeletes bool) error {
	var errs []error

	switch o.TestLevel {
	case "", TestLevelNoTestRun, TestLevelRunLocalTests, TestLevelRunAllTestsInOrg:
		if len(o.RunTests) > 0 {
			errs = append(errs, fmt.Errorf("%w: runTests requires testLevel %s", ErrInvalidConfig, TestLevelRunSpecifiedTests))
		}
	case TestLevelRunSpecifiedTests:
		if len(o.RunTests) == 0 {
			errs = append(errs, fmt.Errorf("%w: testLevel %s requires at least one test", ErrInvalidConfig, o.TestLevel))
		}
	case TestLevelRunRelevantTests:
		v, err := strconv.ParseFloat(apiVersion, 64)
		if err != nil || v < minRelevantTestsAPIVersion {
			errs = append(errs, fmt.Errorf("%w: testLevel %s requires API version %.1f or later (got %q)",
				ErrInvalidConfig, o.TestLevel, minRelevantTestsAPIVersion, apiVersion))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown testLevel %q", ErrInvalidConfig, o.TestLevel))
	}

	if o.PurgeOnDelete && !hasDeletes {
		errs = append(errs, fmt.Errorf("%w: purgeOnDelete requires destructive changes", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// RequestStatus is the state of an asynchronous metadata job.
type RequestStatus string

const (
	StatusPending          RequestStatus = "Pending"
	StatusInProgress       RequestStatus = "InProgress"
	StatusSucceeded        RequestStatus = "Succeeded"
	StatusSucceededPartial RequestStatus = "SucceededPartial"
	StatusFailed           RequestStatus = "Failed"
	StatusCanceling        RequestStatus = "Canceling"
	StatusCanceled         RequestStatus = "Canceled"
)

// AsyncResult identifies a submitted deploy, retrieve or cancel request.
type AsyncResult struct {
	ID   string `xml:"id" json:"id"`
	Done bool   `xml:"done" json:"done"`
}

// DeployMessage is one component outcome inside a deploy status.
type DeployMessage struct {
	Changed       bool   `xml:"changed" json:"changed"`
	ColumnNumber  int    `xml:"columnNumber,omitempty" json:"columnNumber,omitempty"`
	ComponentType string `xml:"componentType" json:"componentType"`
	Created       bool   `xml:"created" json:"created"`
	Deleted       bool   `xml:"deleted" json:"deleted"`
	FileName      string `xml:"fileName" json:"fileName"`
	FullName      string `xml:"fullName" json:"fullName"`
	LineNumber    int    `xml:"lineNumber,omitempty" json:"lineNumber,omitempty"`
	Problem       string `xml:"problem,omitempty" json:"problem,omitempty"`
	ProblemType   string `xml:"problemType,omitempty" json:"problemType,omitempty"`
	Success       bool   `xml:"success" json:"success"`
}

// RunTestFailure is a failed Apex test reported by a deploy.
type RunTestFailure struct {
	Name       string `xml:"name" json:"name"`
	MethodName string `xml:"methodName" json:"methodName"`
	Message    string `xml:"message" json:"message"`
	StackTrace string `xml:"stackTrace" json:"stackTrace"`
}

// RunTestResult summarizes test execution during a deploy.
type RunTestResult struct {
	NumTestsRun int              `xml:"numTestsRun" json:"numTestsRun"`
	NumFailures int              `xml:"numFailures" json:"numFailures"`
	TotalTime   float64          `xml:"totalTime" json:"totalTime"`
	Failures    []RunTestFailure `xml:"failures" json:"failures,omitempty"`
}

// DeployDetails holds per-component results.
type DeployDetails struct {
	ComponentSuccesses []DeployMessage `xml:"componentSuccesses" json:"componentSuccesses,omitempty"`
	ComponentFailures  []DeployMessage `xml:"componentFailures" json:"componentFailures,omitempty"`
	RunTestResult      *RunTestResult  `xml:"runTestResult" json:"runTestResult,omitempty"`
}

// DeployStatus is the checkDeployStatus payload.
type DeployStatus struct {
	ID                       string        `xml:"id" json:"id"`
	Status                   RequestStatus `xml:"status" json:"status"`
	Done                     bool          `xml:"done" json:"done"`
	Success                  bool          `xml:"success" json:"success"`
	CheckOnly                bool          `xml:"checkOnly" json:"checkOnly"`
	IgnoreWarnings           bool          `xml:"ignoreWarnings" json:"ignoreWarnings"`
	RollbackOnError          bool          `xml:"rollbackOnError" json:"rollbackOnError"`
	NumberComponentsTotal    int           `xml:"numberComponentsTotal" json:"numberComponentsTotal"`
	NumberComponentsDeployed int           `xml:"numberComponentsDeployed" json:"numberComponentsDeployed"`
	NumberComponentErrors    int           `xml:"numberComponentErrors" json:"numberComponentErrors"`
	NumberTestsTotal         int           `xml:"numberTestsTotal" json:"numberTestsTotal"`
	NumberTestsCompleted     int           `xml:"numberTestsCompleted" json:"numberTestsCompleted"`
	NumberTestErrors         int           `xml:"numberTestErrors" json:"numberTestErrors"`
	CreatedDate              string        `xml:"createdDate" json:"createdDate,omitempty"`
	CompletedDate            string        `xml:"completedDate" json:"completedDate,omitempty"`
	ErrorMessage             string        `xml:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	ErrorStatusCode          string        `xml:"errorStatusCode,omitempty" json:"errorStatusCode,omitempty"`
	StateDetail              string        `xml:"stateDetail,omitempty" json:"stateDetail,omitempty"`
	Details                  DeployDetails `xml:"details" json:"details"`
}

// IsDone reports whether the job reached a terminal state.
func (s DeployStatus) IsDone() bool { return s.Done }

// IsCanceled reports whether the job ended by cancellation.
func (s DeployStatus) IsCanceled() bool { return s.Status == StatusCanceled }

// PackageTypeMembers is one <types> block of a manifest.
type PackageTypeMembers struct {
	Members []string `xml:"members" json:"members"`
	Name    string   `xml:"name" json:"name"`
}

// Package is the manifest object produced by a component set.
type Package struct {
	FullName string               `xml:"fullName,omitempty" json:"fullName,omitempty"`
	Types    []PackageTypeMembers `xml:"types" json:"types"`
	Version  string               `xml:"version" json:"version"`
}

// Members returns the member names listed for typeName, or nil.
func (p Package) Members(typeName string) []string {
	for _, t := range p.Types {
		if t.Name == typeName {
			return t.Members
		}
	}
	return nil
}

// RetrieveRequest mirrors the metadata API retrieveRequest element.
type RetrieveRequest struct {
	APIVersion                string   `xml:"apiVersion" json:"apiVersion"`
	PackageNames              []string `xml:"packageNames,omitempty" json:"packageNames,omitempty"`
	RootTypesWithDependencies []string `xml:"rootTypesWithDependencies,omitempty" json:"rootTypesWithDependencies,omitempty"`
	SinglePackage             bool     `xml:"singlePackage" json:"singlePackage"`
	SpecificFiles             []string `xml:"specificFiles,omitempty" json:"specificFiles,omitempty"`
	Unpackaged                *Package `xml:"unpackaged,omitempty" json:"unpackaged,omitempty"`
}

// FileProperties describes one file in a retrieve payload.
type FileProperties struct {
	CreatedByName      string `xml:"createdByName" json:"createdByName"`
	CreatedDate        string `xml:"createdDate" json:"createdDate"`
	FileName           string `xml:"fileName" json:"fileName"`
	FullName           string `xml:"fullName" json:"fullName"`
	ID                 string `xml:"id" json:"id"`
	LastModifiedByName string `xml:"lastModifiedByName" json:"lastModifiedByName"`
	LastModifiedDate   string `xml:"lastModifiedDate" json:"lastModifiedDate"`
	ManageableState    string `xml:"manageableState,omitempty" json:"manageableState,omitempty"`
	NamespacePrefix    string `xml:"namespacePrefix,omitempty" json:"namespacePrefix,omitempty"`
	Type               string `xml:"type" json:"type"`
}

// RetrieveMessage is a problem reported for one file of a retrieve.
type RetrieveMessage struct {
	FileName string `xml:"fileName" json:"fileName"`
	Problem  string `xml:"problem" json:"problem"`
}

// RetrieveStatus is the checkRetrieveStatus payload. ZipFile is base64 encoded.
type RetrieveStatus struct {
	ID              string            `xml:"id" json:"id"`
	Status          RequestStatus     `xml:"status" json:"status"`
	Done            bool              `xml:"done" json:"done"`
	Success         bool              `xml:"success" json:"success"`
	ErrorMessage    string            `xml:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	ErrorStatusCode string            `xml:"errorStatusCode,omitempty" json:"errorStatusCode,omitempty"`
	FileProperties  []FileProperties  `xml:"fileProperties" json:"fileProperties,omitempty"`
	Messages        []RetrieveMessage `xml:"messages" json:"messages,omitempty"`
	ZipFile         string            `xml:"zipFile" json:"zipFile,omitempty"`
}

// IsDone reports whether the job reached a terminal state.
func (s RetrieveStatus) IsDone() bool { return s.Done }

// IsCanceled reports whether the job ended by cancellation.
func (s RetrieveStatus) IsCanceled() bool { return s.Status == StatusCanceled }

// DestructiveChangesType is the deploy phase in which a deletion runs.
type DestructiveChangesType string

const (
	DestructivePre  DestructiveChangesType = "pre"
	DestructivePost DestructiveChangesType = "post"
)

// FileName returns the manifest file name used for this phase.
func (d DestructiveChangesType) FileName() string {
	switch d {
	case DestructivePre:
		return "destructiveChangesPre.xml"
	case DestructivePost:
		return "destructiveChangesPost.xml"
	}
	return ManifestFileName
}
