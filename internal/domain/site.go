package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrSiteNotFound is returned by site stores when no site has the given ID.
	ErrSiteNotFound = errors.New("site not found")

	// ErrInvalidSite wraps every validation failure reported by ValidateSite.
	ErrInvalidSite = errors.New("invalid site")
)

// SiteType is the energy/construction category of a site. It drives the
// weather vulnerability multiplier in risk scoring.
type SiteType string

const (
	SiteTypeSolarArray    SiteType = "solar_array"
	SiteTypeWindFarm      SiteType = "wind_farm"
	SiteTypeHydroelectric SiteType = "hydroelectric"
	SiteTypeCoal          SiteType = "coal"
	SiteTypeNaturalGas    SiteType = "natural_gas"
	SiteTypeNuclear       SiteType = "nuclear"
	SiteTypeGeothermal    SiteType = "geothermal"
	SiteTypeBiomass       SiteType = "biomass"
	SiteTypeOther         SiteType = "other"
)

// SiteTypes lists every known site type in display order.
var SiteTypes = []SiteType{
	SiteTypeSolarArray,
	SiteTypeWindFarm,
	SiteTypeHydroelectric,
	SiteTypeCoal,
	SiteTypeNaturalGas,
	SiteTypeNuclear,
	SiteTypeGeothermal,
	SiteTypeBiomass,
	SiteTypeOther,
}

// Valid reports whether t is one of the known site types.
func (t SiteType) Valid() bool {
	for _, known := range SiteTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Coordinate is a WGS-84 position. It serializes as a GeoJSON-style
// [lon, lat] pair, which is how the map layer draws polygons.
type Coordinate struct {
	Lon float64
	Lat float64
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lon, c.Lat})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode coordinate: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode coordinate: want [lon, lat], got %d values", len(pair))
	}
	c.Lon, c.Lat = pair[0], pair[1]
	return nil
}

// Site is a monitored polygonal area. The first and last coordinates are
// implicitly connected.
type Site struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Type        SiteType     `json:"site_type"`
	Coordinates []Coordinate `json:"coordinates"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Polygon returns the site boundary as (x=lon, y=lat) points.
func (s Site) Polygon() []Point {
	pts := make([]Point, len(s.Coordinates))
	for i, c := range s.Coordinates {
		pts[i] = Point{X: c.Lon, Y: c.Lat}
	}
	return pts
}

// SiteUpdate is a partial update. Nil fields are left unchanged.
type SiteUpdate struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Type        *SiteType     `json:"site_type,omitempty"`
	Coordinates *[]Coordinate `json:"coordinates,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u SiteUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Type == nil && u.Coordinates == nil
}

// Apply returns a copy of site with the non-nil fields of u applied.
func (u SiteUpdate) Apply(site Site) Site {
	if u.Name != nil {
		site.Name = *u.Name
	}
	if u.Description != nil {
		site.Description = *u.Description
	}
	if u.Type != nil {
		site.Type = *u.Type
	}
	if u.Coordinates != nil {
		site.Coordinates = append([]Coordinate(nil), (*u.Coordinates)...)
	}
	return site
}

// ValidateSite checks a site submitted by a user. The scoring functions do
// not call it; they tolerate any input.
func ValidateSite(site Site) error {
	if strings.TrimSpace(site.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSite)
	}
	if !site.Type.Valid() {
		return fmt.Errorf("%w: unknown site type %q", ErrInvalidSite, site.Type)
	}
	if len(site.Coordinates) < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 points, got %d", ErrInvalidSite, len(site.Coordinates))
	}
	for i, c := range site.Coordinates {
		if c.Lat < -90 || c.Lat > 90 {
			return fmt.Errorf("%w: point %d latitude %g out of range", ErrInvalidSite, i, c.Lat)
		}
		if c.Lon < -180 || c.Lon > 180 {
			return fmt.Errorf("%w: point %d longitude %g out of range", ErrInvalidSite, i, c.Lon)
		}
	}
	return nil
}
