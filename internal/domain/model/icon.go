package model

// IconProvider names the glyph catalog an icon name resolves in.
type IconProvider string

const (
	IconProviderMaterialCommunity IconProvider = "MaterialCommunityIcons"
	IconProviderIonicons          IconProvider = "Ionicons"
	IconProviderFontAwesome       IconProvider = "FontAwesome"
	IconProviderMaterial          IconProvider = "MaterialIcons"
	IconProviderAntDesign         IconProvider = "AntDesign"
	IconProviderEntypo            IconProvider = "Entypo"
)

// DefaultIconProvider is assumed for icons registered without a provider.
const DefaultIconProvider = IconProviderMaterialCommunity

// DefaultIconName is seeded into an empty icon table so new groups always
// have something to point at.
const DefaultIconName = "shield-lock"

// IconProviders lists the supported catalogs in lookup priority order.
var IconProviders = []IconProvider{
	IconProviderMaterialCommunity,
	IconProviderIonicons,
	IconProviderFontAwesome,
	IconProviderMaterial,
	IconProviderAntDesign,
	IconProviderEntypo,
}

// Valid reports whether p is one of the supported catalogs.
func (p IconProvider) Valid() bool {
	for _, known := range IconProviders {
		if p == known {
			return true
		}
	}
	return false
}

// Icon is a named glyph from one of the provider catalogs. Icons are a shared
// catalog: groups reference them but do not own them.
type Icon struct {
	ID       int64
	Name     string
	Provider IconProvider
}
