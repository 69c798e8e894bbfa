package mapping

// Kind tells the mapper how to coerce a source value.
type Kind uint8

const (
	KindText Kind = iota
	KindDecimal
	KindInteger
	KindBool
	KindImage
)

// Column binds one products column to the source field names that may carry
// it. Candidates are tried in order and the first non-empty value wins.
type Column struct {
	Name       string
	Kind       Kind
	Candidates []string
}

const (
	ColumnSku              = "sku"
	ColumnName             = "name"
	ColumnBrand            = "brand"
	ColumnCategory         = "category"
	ColumnDescription      = "description"
	ColumnShortDescription = "short_description"
	ColumnSuggestedPrice   = "suggested_price"
	ColumnWeight           = "weight"
	ColumnPackSize         = "pack_size"
	ColumnActive           = "active"
	ColumnImage            = "image"
)

// Columns is the name-to-column table applied to every source record.
var Columns = []Column{
	{Name: ColumnSku, Kind: KindText, Candidates: []string{
		"SKU", "sku", "Sku", "Item Code", "Artikelnummer", "Art.-Nr.", "Référence", "Referencia",
	}},
	{Name: ColumnName, Kind: KindText, Candidates: []string{
		"Name", "name", "Title", "title", "Product Name", "Produktname", "Bezeichnung", "Nom", "Nombre",
	}},
	{Name: ColumnBrand, Kind: KindText, Candidates: []string{
		"Brand", "brand", "Manufacturer", "Marke", "Hersteller", "Marque", "Marca",
	}},
	{Name: ColumnCategory, Kind: KindText, Candidates: []string{
		"Category", "category", "Type", "Kategorie", "Warengruppe", "Catégorie", "Categoría",
	}},
	{Name: ColumnDescription, Kind: KindText, Candidates: []string{
		"Description", "description", "Long Description", "Beschreibung", "Description longue", "Descripción",
	}},
	{Name: ColumnShortDescription, Kind: KindText, Candidates: []string{
		"Short Description", "Summary", "Kurzbeschreibung", "Résumé", "Resumen",
	}},
	{Name: ColumnSuggestedPrice, Kind: KindDecimal, Candidates: []string{
		"Suggested Price", "MSRP", "RRP", "Price", "price", "UVP", "Preis", "Prix conseillé", "Prix", "Precio",
	}},
	{Name: ColumnWeight, Kind: KindDecimal, Candidates: []string{
		"Weight", "weight", "Weight (g)", "Gewicht", "Poids", "Peso",
	}},
	{Name: ColumnPackSize, Kind: KindInteger, Candidates: []string{
		"Pack Size", "Pack size", "Units per Pack", "Verpackungseinheit", "VPE", "Conditionnement", "Unidades por paquete",
	}},
	{Name: ColumnActive, Kind: KindBool, Candidates: []string{
		"Active", "active", "Available", "In Stock", "Aktiv", "Verfügbar", "Actif", "Disponible",
	}},
	{Name: ColumnImage, Kind: KindImage, Candidates: []string{
		"Image", "Images", "image", "Photo", "Photos", "Image URL", "Bild", "Bilder", "Imagen",
	}},
}
