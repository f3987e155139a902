package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderLineModel is one row of the ventas_retail table. An order is stored as one
// row per product line; the customer and status columns repeat on every row.
type OrderLineModel struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement"`
	OrderID            uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	NumeroOrden        string          `gorm:"column:numero_orden;type:varchar(20);not null;index"`
	Linea              int             `gorm:"column:linea;not null;default:0"`
	SessionID          uuid.UUID       `gorm:"column:session_id;type:uuid;index"`
	ClienteFinal       string          `gorm:"column:cliente_final;type:varchar(255)"`
	RutDocumento       string          `gorm:"column:rut_documento;type:varchar(50)"`
	Email              string          `gorm:"column:email;type:varchar(255)"`
	Telefono           string          `gorm:"column:telefono;type:varchar(50)"`
	FechaCompra        time.Time       `gorm:"column:fecha_compra;not null"`
	FechaEntrega       time.Time       `gorm:"column:fecha_entrega"`
	ProductoID         int64           `gorm:"column:producto_id;not null"`
	Producto           string          `gorm:"column:producto;type:varchar(255)"`
	SKU                string          `gorm:"column:sku;type:varchar(255)"`
	Precio             decimal.Decimal `gorm:"column:precio;type:decimal(12,2);not null"`
	Unidades           int             `gorm:"column:unidades;not null;default:1"`
	CostoDespacho      decimal.Decimal `gorm:"column:costo_despacho;type:decimal(12,2);not null;default:0"`
	Comuna             string          `gorm:"column:comuna;type:varchar(100)"`
	Direccion          string          `gorm:"column:direccion;type:varchar(500)"`
	Region             string          `gorm:"column:region;type:varchar(100)"`
	MetodoPago         string          `gorm:"column:metodo_pago;type:varchar(50)"`
	Estado             string          `gorm:"column:estado;type:varchar(50);not null;default:'nueva'"`
	EstadoPago         string          `gorm:"column:estado_pago;type:varchar(50);not null;default:'pendiente'"`
	FechaPago          *time.Time      `gorm:"column:fecha_pago"`
	CodigoAutorizacion string          `gorm:"column:codigo_autorizacion;type:varchar(255)"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "ventas_retail"
}

// OrderLineModelsFromDomain flattens an order into its table rows
func OrderLineModelsFromDomain(o *checkout.Order) []OrderLineModel {
	rows := make([]OrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		rows[i] = OrderLineModel{
			OrderID:            o.ID,
			NumeroOrden:        o.Number,
			Linea:              i,
			SessionID:          o.SessionID,
			ClienteFinal:       o.Customer.Name,
			RutDocumento:       o.Customer.RUT,
			Email:              o.Customer.Email,
			Telefono:           o.Customer.Phone,
			FechaCompra:        o.PurchasedAt,
			FechaEntrega:       o.DeliveryDate,
			ProductoID:         l.ProductID,
			Producto:           l.Name,
			SKU:                l.SKU,
			Precio:             l.UnitPrice,
			Unidades:           l.Quantity,
			CostoDespacho:      decimal.Zero,
			Comuna:             o.Customer.Commune,
			Direccion:          o.Customer.Address,
			Region:             o.Customer.Region,
			MetodoPago:         o.Customer.PaymentMethod,
			Estado:             string(o.Status),
			EstadoPago:         string(o.PaymentStatus),
			FechaPago:          o.PaidAt,
			CodigoAutorizacion: o.AuthorizationCode,
			CreatedAt:          o.CreatedAt,
			UpdatedAt:          o.UpdatedAt,
		}
	}
	return rows
}

// OrderFromLineModels rebuilds an order from its rows. It returns nil for no rows.
func OrderFromLineModels(rows []OrderLineModel) *checkout.Order {
	if len(rows) == 0 {
		return nil
	}
	sorted := append([]OrderLineModel(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Linea < sorted[j].Linea })

	head := sorted[0]
	o := &checkout.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        head.OrderID,
				CreatedAt: head.CreatedAt,
				UpdatedAt: head.UpdatedAt,
			},
		},
		Number:    head.NumeroOrden,
		SessionID: head.SessionID,
		Customer: checkout.Customer{
			Name:          head.ClienteFinal,
			RUT:           head.RutDocumento,
			Email:         head.Email,
			Phone:         head.Telefono,
			Commune:       head.Comuna,
			Address:       head.Direccion,
			Region:        head.Region,
			PaymentMethod: head.MetodoPago,
		},
		PurchasedAt:       head.FechaCompra,
		DeliveryDate:      head.FechaEntrega,
		Status:            checkout.OrderStatus(head.Estado),
		PaymentStatus:     checkout.PaymentStatus(head.EstadoPago),
		AuthorizationCode: head.CodigoAutorizacion,
		PaidAt:            head.FechaPago,
	}

	total := decimal.Zero
	o.Lines = make([]checkout.OrderLine, len(sorted))
	for i, r := range sorted {
		o.Lines[i] = checkout.OrderLine{
			ProductID: r.ProductoID,
			SKU:       r.SKU,
			Name:      r.Producto,
			UnitPrice: r.Precio,
			Quantity:  r.Unidades,
		}
		total = total.Add(o.Lines[i].Subtotal())
	}
	o.Total = valueobject.NewCLP(total)
	return o
}

// PaymentTransactionModel is the persistence model for gateway transactions
type PaymentTransactionModel struct {
	BaseModel
	NumeroOrden       string `gorm:"column:numero_orden;type:varchar(50);not null;index"`
	Token             string `gorm:"column:token;type:varchar(100);uniqueIndex"`
	SessionID         string `gorm:"column:session_id;type:varchar(100)"`
	Monto             int64  `gorm:"column:monto;not null"`
	Moneda            string `gorm:"column:moneda;type:varchar(3);not null;default:'CLP'"`
	Estado            string `gorm:"column:estado;type:varchar(20);not null;default:'iniciada'"`
	AuthorizationCode string `gorm:"column:authorization_code;type:varchar(20)"`
	PaymentTypeCode   string `gorm:"column:payment_type_code;type:varchar(5)"`
	ResponseCode      string `gorm:"column:response_code;type:varchar(10)"`
	ResultadoCompleto string `gorm:"column:resultado_completo;type:text"`
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "transacciones_webpay"
}

// ToDomain converts the persistence model to a domain PaymentTransaction
func (m *PaymentTransactionModel) ToDomain() *checkout.PaymentTransaction {
	currency := valueobject.Currency(m.Moneda)
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	amount, _ := valueobject.NewMoneyFromInt(m.Monto, currency)
	return &checkout.PaymentTransaction{
		BaseEntity:        m.BaseModel.ToDomain(),
		OrderNumber:       m.NumeroOrden,
		Token:             m.Token,
		SessionID:         m.SessionID,
		Amount:            amount,
		Status:            checkout.TransactionStatus(m.Estado),
		AuthorizationCode: m.AuthorizationCode,
		PaymentTypeCode:   m.PaymentTypeCode,
		ResponseCode:      m.ResponseCode,
		Result:            m.ResultadoCompleto,
	}
}

// FromDomain populates the persistence model from a domain PaymentTransaction
func (m *PaymentTransactionModel) FromDomain(t *checkout.PaymentTransaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.NumeroOrden = t.OrderNumber
	m.Token = t.Token
	m.SessionID = t.SessionID
	m.Monto = t.Amount.MinorUnits()
	m.Moneda = string(t.Amount.Currency())
	m.Estado = string(t.Status)
	m.AuthorizationCode = t.AuthorizationCode
	m.PaymentTypeCode = t.PaymentTypeCode
	m.ResponseCode = t.ResponseCode
	m.ResultadoCompleto = t.Result
}

// PaymentTransactionModelFromDomain creates a new persistence model from a domain PaymentTransaction
func PaymentTransactionModelFromDomain(t *checkout.PaymentTransaction) *PaymentTransactionModel {
	m := &PaymentTransactionModel{}
	m.FromDomain(t)
	return m
}
