package braidsched

// Importing automaxprocs for its init side effect makes
// runtime.GOMAXPROCS(0) reflect the container's CPU quota (cgroup
// limits) rather than the host's full core count, so the "default
// thread count" sentinel in Config.ThreadCount picks a sane value
// under Kubernetes/Docker CPU limits.
import _ "go.uber.org/automaxprocs"
