package pkg

import "fmt"

var (
	// These variables are here only to show current version. They are set in makefile during build process
	ShardMapCtlVersion  = "devel"
	GitRevision         = "devel"
	ShardMapCtlRevision = fmt.Sprintf("%s-%s", ShardMapCtlVersion, GitRevision)
)
