package orbital

const (
	// G is the gravitational constant in m^3 kg^-1 s^-2.
	G = 6.67430e-11

	AU            = 1.495978707e11 // m
	SpeedOfLight  = 299792458.0    // m/s
	SecondsPerDay = 86400.0

	SolarMass = 1.98847e30 // kg
	EarthMass = 5.9722e24  // kg

	// epsilon below which eccentricity and node vectors count as zero.
	epsilon = 1e-11
)

// StandardGravitationalParameter is G*M for a body of mass kg.
func StandardGravitationalParameter(mass float64) float64 {
	return G * mass
}
