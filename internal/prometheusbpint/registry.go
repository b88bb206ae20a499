// Package prometheusbpint provides internal prometheus plumbing shared by the
// packages of this module.
package prometheusbpint

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GlobalRegistry is the registerer all metrics of this module are registered
// with.
var GlobalRegistry prometheus.Registerer = prometheus.DefaultRegisterer
