package domain

import (
	"time"
)

// Company represents a company that owns invoices.
type Company struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CNPJ      string     `json:"cnpj"`
	Address   string     `json:"address"`
	City      string     `json:"city"`
	UF        string     `json:"uf"`
	CEP       string     `json:"cep"`
	OwnerID   string     `json:"ownerId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}
