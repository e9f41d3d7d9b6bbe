package domain

// MetricKey identifies one acoustic or activity category tracked per bucket.
type MetricKey string

const (
	MetricSonar              MetricKey = "sonar"
	MetricBlueWhale          MetricKey = "bluewhale"
	MetricHumpbackWhale      MetricKey = "humpbackwhale"
	MetricShips              MetricKey = "ships"
	MetricBocaccio           MetricKey = "bocaccio"
	MetricPlainfinMidshipman MetricKey = "plainfinmidshipman"
	MetricExplosions         MetricKey = "explosions"
	MetricDolphins           MetricKey = "dolphins"
	MetricFinWhale           MetricKey = "finwhale"
)

// MetricColumns lists every metric key in CSV column order.
var MetricColumns = [...]MetricKey{
	MetricSonar,
	MetricBlueWhale,
	MetricHumpbackWhale,
	MetricShips,
	MetricBocaccio,
	MetricPlainfinMidshipman,
	MetricExplosions,
	MetricDolphins,
	MetricFinWhale,
}

// SoundTypeColors maps the user-facing sound categories to display colors.
// Sonar has no color; it is never drawn as its own series.
var SoundTypeColors = map[MetricKey]string{
	MetricShips:              "#E44000",
	MetricExplosions:         "#FE7C1F",
	MetricBlueWhale:          "#73CBE9",
	MetricFinWhale:           "#E5AA00",
	MetricHumpbackWhale:      "#E656E1",
	MetricDolphins:           "#81C995",
	MetricBocaccio:           "#9F6FF8",
	MetricPlainfinMidshipman: "#81C995",
}

// ShipColorRGBA is the track color for vessel trips.
var ShipColorRGBA = [4]uint8{228, 64, 0, 255}

// ValueStatus is the three-state reading used by day cards.
type ValueStatus string

const (
	StatusMissing ValueStatus = "missing"
	StatusZero    ValueStatus = "zero"
	StatusDetect  ValueStatus = "detect"
)

// ClassifyValue reports whether a metric value is absent, zero, or a detection.
func ClassifyValue(v *float64) ValueStatus {
	switch {
	case v == nil:
		return StatusMissing
	case *v == 0:
		return StatusZero
	default:
		return StatusDetect
	}
}
