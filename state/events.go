package state

import "github.com/shimmeringbee/panelbridge/spc"

type AreaUpdate struct {
	Panel string
	Area  spc.Area
}

type ZoneUpdate struct {
	Panel string
	Zone  spc.Zone
}
