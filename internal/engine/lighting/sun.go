// Package lighting provides the directional light used to shade rigs.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Sun is a directional light placed by compass angles in degrees.
// Longitude is rotation around Y, latitude is elevation from the horizon.
type Sun struct {
	Longitude float32
	Latitude  float32
}

// Direction returns the unit vector pointing towards the sun.
func (s Sun) Direction() math.Vec3 {
	lon := s.Longitude * math32.Pi / 180
	lat := s.Latitude * math32.Pi / 180

	sinLon, cosLon := math32.Sincos(lon)
	sinLat, cosLat := math32.Sincos(lat)
	return math.V3(cosLat*sinLon, sinLat, cosLat*cosLon)
}
