package domain

import "sort"

// Встроенные типы туров
const (
	TourPanoramic   = "panoramic"
	TourFurnas      = "furnas"
	TourSeteCidades = "sete_cidades"
	TourLagoaFogo   = "lagoa_fogo"
	TourNordeste    = "nordeste"
)

var defaultDurations = map[string]int{
	TourPanoramic:   45,
	TourFurnas:      60,
	TourSeteCidades: 90,
	TourLagoaFogo:   90,
	TourNordeste:    120,
}

// DurationTable длительность тура по его типу
type DurationTable struct {
	minutes  map[string]int
	fallback int
}

// NewDurationTable встроенная таблица, дополненная/переопределённая значениями из конфига
func NewDurationTable(overrides map[string]int) *DurationTable {
	minutes := make(map[string]int, len(defaultDurations)+len(overrides))
	for k, v := range defaultDurations {
		minutes[k] = v
	}
	for k, v := range overrides {
		if v > 0 {
			minutes[k] = v
		}
	}
	return &DurationTable{minutes: minutes, fallback: DefaultTourDurationMinutes}
}

// DefaultDurationTable только встроенные значения
func DefaultDurationTable() *DurationTable {
	return NewDurationTable(nil)
}

// DurationMinutes длительность тура; для неизвестного типа возвращает 45 минут
func (d *DurationTable) DurationMinutes(tourType string) int {
	if m, ok := d.minutes[tourType]; ok {
		return m
	}
	return d.fallback
}

// Known true, если тип тура есть в таблице
func (d *DurationTable) Known(tourType string) bool {
	_, ok := d.minutes[tourType]
	return ok
}

// TourTypes отсортированный список известных типов
func (d *DurationTable) TourTypes() []string {
	out := make([]string, 0, len(d.minutes))
	for k := range d.minutes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
