package version

// DagmonVersion is the current semantic version of the harness.
const DagmonVersion = "0.2.0"
