package domain

import (
	sharedBus "github.com/vskolike/groupdir/shared/platform/bus"
)

// Group es una colección con nombre de miembros usada para autorización.
// ID lo asigna el cliente y no cambia tras la creación.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (g *Group) PartitionKey() string {
	return g.ID
}

// Verificación estática para asegurar que Group implementa la interfaz
var _ sharedBus.Keyer = (*Group)(nil)
