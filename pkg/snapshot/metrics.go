package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// snapshotSize tracks the number of petitions held by each named store.
var snapshotSize = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "petitions_snapshot_size",
		Help: "Number of petitions held in the snapshot",
	},
	[]string{"store"},
)
