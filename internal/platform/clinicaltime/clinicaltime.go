// Package clinicaltime compone y presenta fechas clínicas en la zona horaria de la clínica.
//
// Las citas guardan fecha (YYYY-MM-DD) y hora (HH:mm) como texto local. Al pasar a
// consulta se componen en la Location configurada; el store puede normalizar a UTC,
// pero al releer y convertir con In(loc) se obtiene siempre la misma fecha y hora local.
package clinicaltime

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // la imagen de runtime puede no traer zoneinfo
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// DefaultZone es la zona de la clínica si no se configura otra.
	DefaultZone = "America/Santiago"
)

// Clock permite inyectar el reloj (walk-ins usan wall-clock).
type Clock func() time.Time

// LoadLocation resuelve name; vacío => DefaultZone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clinicaltime: unknown zone %q: %w", name, err)
	}
	return loc, nil
}

// ParseDate valida YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// ParseClock valida HH:mm (24h).
func ParseClock(s string) (time.Time, error) {
	return time.Parse(TimeLayout, strings.TrimSpace(s))
}

// Compose arma el instante correspondiente a date+clock como hora local de loc.
//
// No usa time.Parse + In(loc): eso interpretaría la hora como UTC y la desplazaría.
// En un salto de DST inexistente (hora que no existe en loc) Go normaliza hacia
// adelante, igual que un reloj de pared.
func Compose(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, fmt.Errorf("clinicaltime: nil location")
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("clinicaltime: date must be YYYY-MM-DD: %w", err)
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("clinicaltime: time must be HH:mm: %w", err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

// LocalDate devuelve YYYY-MM-DD de t visto en loc.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// LocalClock devuelve HH:mm de t visto en loc.
func LocalClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}

// Display es el formato largo usado en pantallas y reportes ("10 March 2024").
func Display(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2 January 2006")
}

// Today devuelve la fecha local de now en loc.
func Today(now time.Time, loc *time.Location) string {
	return LocalDate(now, loc)
}
