package model

import (
	"strconv"
	"time"
)

// Vehicle statuses used by the yard. The first ones are set at the gate,
// the last three drive the dashboard buckets.
const (
	StatusEnturnado          = "Enturnado"
	StatusNoEnturnado        = "No enturnado"
	StatusAnunciado          = "Anunciado"
	StatusAutorizado         = "Autorizado"
	StatusEnInspeccion       = "En inspeccion"
	StatusRevisionDocumental = "Revision documental"
	StatusTransitoEntrando   = "Transito entrando"
	StatusProcesado          = "Procesado"
	StatusIngreso            = "Ingresó"
	StatusEnProceso          = "En proceso"
	StatusFinalizado         = "Finalizado"
)

// RecordStateActive marks rows that are shown in the queue.
const RecordStateActive = "Activo"

// Statuses returns the status vocabulary in workflow order.
func Statuses() []string {
	return []string{
		StatusEnturnado, StatusNoEnturnado, StatusAnunciado, StatusAutorizado,
		StatusEnInspeccion, StatusRevisionDocumental, StatusTransitoEntrando,
		StatusProcesado, StatusIngreso, StatusEnProceso, StatusFinalizado,
	}
}

// IsKnownStatus reports whether s belongs to the status vocabulary.
func IsKnownStatus(s string) bool {
	for _, v := range Statuses() {
		if v == s {
			return true
		}
	}
	return false
}

// PackagingTypes lists the vehicle/packaging kinds offered on the edit form.
func PackagingTypes() []string {
	return []string{"Camión", "Furgón", "TractoCamión", "Camabaja", "Volqueta", "Grua", "Planchon", "Isotanque"}
}

// Vehicle is one entry of the daily turn queue.
type Vehicle struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Folio         int       `gorm:"index;not null" json:"folio"`
	Consecutive   int       `gorm:"index" json:"consecutive"`
	RecordState   string    `gorm:"size:16;not null;default:Activo" json:"-"`
	NationalID    *string   `gorm:"size:32" json:"nationalId"`
	DriverName    *string   `gorm:"size:128" json:"driverName"`
	Plate         *string   `gorm:"size:16;index" json:"plate"`
	Trailer       *string   `gorm:"size:16" json:"trailer"`
	ProductGroup  *string   `gorm:"size:64" json:"productGroup"`
	Product       *string   `gorm:"size:128" json:"product"`
	Process       *string   `gorm:"size:64" json:"process"`
	Client        *string   `gorm:"size:128" json:"client"`
	Origin        *string   `gorm:"size:128" json:"origin"`
	Destination   *string   `gorm:"size:128" json:"destination"`
	Manifest      *string   `gorm:"size:64" json:"manifest"`
	AxleCount     *int      `json:"axleCount"`
	PackagingType *string   `gorm:"size:32" json:"packagingType"`
	Status        string    `gorm:"size:32;not null" json:"status"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PlateLabel returns the plate for messages, falling back to the ID.
func (v Vehicle) PlateLabel() string {
	if v.Plate != nil && *v.Plate != "" {
		return *v.Plate
	}
	return "#" + strconv.FormatInt(v.ID, 10)
}
