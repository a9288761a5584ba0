package category

// DefaultIcon is assigned when no icon is chosen or suggested.
const DefaultIcon = "category"

// IconSuggestions is the curated list of Material Symbol names offered
// on the category forms.
var IconSuggestions = []string{
	"shopping_cart", "restaurant", "local_gas_station", "flight",
	"hotel", "medical_services", "fitness_center", "sports_tennis",
	"movie", "music_note", "book", "school", "computer", "phone",
	"home", "electric_bolt", "water_drop", "wifi", "shopping_bag",
	"local_cafe", "fastfood", "directions_car", "train", "directions_bus",
	"local_taxi", "two_wheeler", "local_mall", "checkroom", "pets",
	"child_care", "toys", "celebration", "cake", "local_florist",
}
