package version

import (
	"bytes"
	"fmt"

	"github.com/0xPolygon/evm-tracecheck/versioning"
)

type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"buildTime"`
}

func NewVersionResult() *VersionResult {
	return &VersionResult{
		Version:   versioning.Version,
		Commit:    versioning.Commit,
		Branch:    versioning.Branch,
		BuildTime: versioning.BuildTime,
	}
}

func (r *VersionResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString(fmt.Sprintf("\nVersion : %s\n", r.Version))
	buffer.WriteString(fmt.Sprintf("Git branch : %s\n", r.Branch))
	buffer.WriteString(fmt.Sprintf("Commit hash : %s\n", r.Commit))
	buffer.WriteString(fmt.Sprintf("Build time : %s\n", r.BuildTime))

	return buffer.String()
}
