package models

import (
	"strings"

	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ImagePathPrefix is the public path image file names are served under
const ImagePathPrefix = "/static/productos/"

// ProductModel is the persistence model for the storefront catalog.
// Column names follow the existing productos table.
type ProductModel struct {
	ID                int64               `gorm:"primaryKey;autoIncrement"`
	SKU               string              `gorm:"column:sku;type:varchar(255);index"`
	Nombre            string              `gorm:"column:nombre;type:varchar(255)"`
	PrecioVenta       decimal.Decimal     `gorm:"column:precio_venta;type:decimal(12,2);not null;default:0"`
	TipoProducto      string              `gorm:"column:tipo_producto;type:varchar(50);index"`
	Descripcion       string              `gorm:"column:descripcion_producto;type:text"`
	Img1              string              `gorm:"column:img_1;type:varchar(255)"`
	Img2              string              `gorm:"column:img_2;type:varchar(255)"`
	Img3              string              `gorm:"column:img_3;type:varchar(255)"`
	Img4              string              `gorm:"column:img_4;type:varchar(255)"`
	Img5              string              `gorm:"column:img_5;type:varchar(255)"`
	Img6              string              `gorm:"column:img_6;type:varchar(255)"`
	Img7              string              `gorm:"column:img_7;type:varchar(255)"`
	Img8              string              `gorm:"column:img_8;type:varchar(255)"`
	Img9              string              `gorm:"column:img_9;type:varchar(255)"`
	Img10             string              `gorm:"column:img_10;type:varchar(255)"`
	PrecioDescuento   decimal.NullDecimal `gorm:"column:precio_descuento;type:decimal(12,2)"`
	TipoProductoVenta string              `gorm:"column:tipo_producto_venta;type:varchar(50);index"`
	Visitas           int64               `gorm:"column:visitas;not null;default:0"`
	Dimensiones       string              `gorm:"column:dimensiones;type:varchar(255)"`
	Material          string              `gorm:"column:material;type:varchar(255)"`
	Colores           string              `gorm:"column:colores_disponibles;type:text"`
	TiempoEntrega     string              `gorm:"column:tiempo_entrega;type:varchar(255)"`
	ColoresHex        string              `gorm:"column:colores_hex;type:text"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "productos"
}

func (m *ProductModel) imageSlots() []*string {
	return []*string{&m.Img1, &m.Img2, &m.Img3, &m.Img4, &m.Img5, &m.Img6, &m.Img7, &m.Img8, &m.Img9, &m.Img10}
}

// ToDomain converts the persistence model to a domain Product.
// Empty image slots are skipped and file names are exposed under ImagePathPrefix.
func (m *ProductModel) ToDomain() *catalog.Product {
	images := make([]string, 0, catalog.MaxImages)
	for _, slot := range m.imageSlots() {
		if *slot != "" {
			images = append(images, ImagePathPrefix+*slot)
		}
	}
	return &catalog.Product{
		ID:              m.ID,
		SKU:             m.SKU,
		Name:            m.Nombre,
		Type:            catalog.ProductType(m.TipoProducto),
		Description:     m.Descripcion,
		ListPrice:       m.PrecioVenta,
		DiscountedPrice: m.PrecioDescuento,
		Images:          images,
		Dimensions:      m.Dimensiones,
		Material:        m.Material,
		Colors:          m.Colores,
		ColorsHex:       m.ColoresHex,
		DeliveryTime:    m.TiempoEntrega,
		Visits:          m.Visitas,
		SaleChannel:     m.TipoProductoVenta,
	}
}

// FromDomain populates the persistence model from a domain Product.
// Images beyond MaxImages are dropped.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.ID = p.ID
	m.SKU = p.SKU
	m.Nombre = p.Name
	m.TipoProducto = string(p.Type)
	m.Descripcion = p.Description
	m.PrecioVenta = p.ListPrice
	m.PrecioDescuento = p.DiscountedPrice
	m.Dimensiones = p.Dimensions
	m.Material = p.Material
	m.Colores = p.Colors
	m.ColoresHex = p.ColorsHex
	m.TiempoEntrega = p.DeliveryTime
	m.Visitas = p.Visits
	m.TipoProductoVenta = p.SaleChannel

	slots := m.imageSlots()
	for i, slot := range slots {
		*slot = ""
		if i < len(p.Images) {
			*slot = strings.TrimPrefix(p.Images[i], ImagePathPrefix)
		}
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
