package version

// 构建时通过 -ldflags "-X" 注入
var (
	Version   = "unknown-version"
	GitCommit = "unknown-commit"
)
