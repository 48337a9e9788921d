package geo

import (
	"errors"
	"math"
)

// EarthRadiusKm - средний радиус Земли в километрах
const EarthRadiusKm = 6371.0

// epsilon для проверки коллинеарности в градусах (около 1 мм на экваторе)
const epsilon = 1e-9

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate: latitude must be [-90, 90], longitude must be [-180, 180]")
	ErrTooFewVertices    = errors.New("polygon must have at least 3 vertices")
	ErrDuplicateVertex   = errors.New("polygon has duplicate consecutive vertices")
	ErrSelfIntersection  = errors.New("polygon edges intersect")
	ErrZeroArea          = errors.New("polygon has zero area")
)

// Point - координата в десятичных градусах
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// BBox - осевой ограничивающий прямоугольник
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// ValidCoordinate проверяет диапазон и отсутствие NaN/Inf
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HaversineKm возвращает расстояние по большому кругу в километрах
func HaversineKm(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dlat := (b.Latitude - a.Latitude) * math.Pi / 180
	dlng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundsOf вычисляет прямоугольник полигона
func BoundsOf(polygon []Point) BBox {
	box := BBox{MinLat: math.Inf(1), MaxLat: math.Inf(-1), MinLng: math.Inf(1), MaxLng: math.Inf(-1)}
	for _, p := range polygon {
		box.MinLat = math.Min(box.MinLat, p.Latitude)
		box.MaxLat = math.Max(box.MaxLat, p.Latitude)
		box.MinLng = math.Min(box.MinLng, p.Longitude)
		box.MaxLng = math.Max(box.MaxLng, p.Longitude)
	}
	return box
}

// Contains - граница прямоугольника считается внутренней
func (b BBox) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLng && p.Longitude <= b.MaxLng
}

// boxMargin расширяет прямоугольник, чтобы ошибки округления не отсекали точки на окружности
const boxMargin = 1e-6

// BoxAround возвращает прямоугольник, гарантированно покрывающий круг радиуса radiusKm.
// Используется как грубый предфильтр перед точным расчётом расстояния.
// Полуширина по долготе - asin(sin(r)/cos(lat)), точка касания круга с меридианом.
// Если круг задевает полюс или антимеридиан, берётся весь диапазон долгот.
func BoxAround(center Point, radiusKm float64) BBox {
	angular := radiusKm / EarthRadiusKm
	dLat := angular*180/math.Pi + boxMargin
	box := BBox{
		MinLat: math.Max(-90, center.Latitude-dLat),
		MaxLat: math.Min(90, center.Latitude+dLat),
		MinLng: -180,
		MaxLng: 180,
	}

	cosLat := math.Cos(center.Latitude * math.Pi / 180)
	if center.Latitude+dLat >= 90 || center.Latitude-dLat <= -90 || cosLat < 1e-6 {
		return box
	}
	ratio := math.Sin(angular) / cosLat
	if ratio >= 1 {
		return box
	}
	dLng := math.Asin(ratio)*180/math.Pi*(1+boxMargin) + boxMargin
	if center.Longitude-dLng < -180 || center.Longitude+dLng > 180 {
		return box
	}
	box.MinLng = center.Longitude - dLng
	box.MaxLng = center.Longitude + dLng
	return box
}

// PolygonContains - тест пересечений луча (crossing number).
// Точка на ребре или в вершине всегда считается внутренней, чтобы
// повторные замеры у границы не переключались между inside/outside.
func PolygonContains(polygon []Point, p Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := polygon[j], polygon[i]
		if onSegment(a, b, p) {
			return true
		}
		// x - долгота, y - широта
		if (b.Latitude > p.Latitude) != (a.Latitude > p.Latitude) {
			xCross := (a.Longitude-b.Longitude)*(p.Latitude-b.Latitude)/(a.Latitude-b.Latitude) + b.Longitude
			if p.Longitude < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// NormalizePolygon отбрасывает явно замыкающую вершину и проверяет полигон
// на вырожденность: меньше 3 вершин, повторяющиеся соседние вершины,
// самопересечения и нулевая площадь. Самопересечение проверяется раньше площади:
// у симметричной "бабочки" площадь тоже нулевая.
func NormalizePolygon(vertices []Point) ([]Point, error) {
	poly := make([]Point, len(vertices))
	copy(poly, vertices)

	for _, v := range poly {
		if !ValidCoordinate(v.Latitude, v.Longitude) {
			return nil, ErrInvalidCoordinate
		}
	}

	if len(poly) > 3 && samePoint(poly[0], poly[len(poly)-1]) {
		poly = poly[:len(poly)-1]
	}
	if len(poly) < 3 {
		return nil, ErrTooFewVertices
	}

	n := len(poly)
	for i := 0; i < n; i++ {
		if samePoint(poly[i], poly[(i+1)%n]) {
			return nil, ErrDuplicateVertex
		}
	}

	for i := 0; i < n; i++ {
		a1, a2 := poly[i], poly[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// соседние рёбра делят вершину, их не проверяем
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := poly[j], poly[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return nil, ErrSelfIntersection
			}
		}
	}

	if math.Abs(signedArea(poly)) < epsilon*epsilon {
		return nil, ErrZeroArea
	}

	// соседние рёбра, идущие назад по той же прямой, тоже дают вырожденный контур
	for i := 0; i < n; i++ {
		prev, cur, next := poly[(i+n-1)%n], poly[i], poly[(i+1)%n]
		if math.Abs(cross(prev, cur, next)) < epsilon*epsilon && dot(prev, cur, next) > 0 {
			return nil, ErrSelfIntersection
		}
	}

	return poly, nil
}

func samePoint(a, b Point) bool {
	return math.Abs(a.Latitude-b.Latitude) < epsilon && math.Abs(a.Longitude-b.Longitude) < epsilon
}

// cross - z-компонента векторного произведения (b-a)x(c-a)
func cross(a, b, c Point) float64 {
	return (b.Longitude-a.Longitude)*(c.Latitude-a.Latitude) - (b.Latitude-a.Latitude)*(c.Longitude-a.Longitude)
}

// dot - скалярное произведение (a-b).(c-b); положительно, если ребро разворачивается назад
func dot(a, b, c Point) float64 {
	return (a.Longitude-b.Longitude)*(c.Longitude-b.Longitude) + (a.Latitude-b.Latitude)*(c.Latitude-b.Latitude)
}

func signedArea(poly []Point) float64 {
	area := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		area += poly[i].Longitude*poly[j].Latitude - poly[j].Longitude*poly[i].Latitude
	}
	return area / 2
}

func onSegment(a, b, p Point) bool {
	if math.Abs(cross(a, b, p)) > epsilon*math.Max(1, math.Hypot(b.Longitude-a.Longitude, b.Latitude-a.Latitude)) {
		return false
	}
	return p.Longitude >= math.Min(a.Longitude, b.Longitude)-epsilon &&
		p.Longitude <= math.Max(a.Longitude, b.Longitude)+epsilon &&
		p.Latitude >= math.Min(a.Latitude, b.Latitude)-epsilon &&
		p.Latitude <= math.Max(a.Latitude, b.Latitude)+epsilon
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return onSegment(q1, q2, p1) || onSegment(q1, q2, p2) || onSegment(p1, p2, q1) || onSegment(p1, p2, q2)
}
