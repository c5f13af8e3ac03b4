package orchestrator

// openPRPageSize is the scan window for open release pull requests.
const openPRPageSize = 100
