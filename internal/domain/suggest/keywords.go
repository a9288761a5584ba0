package suggest

// keywordRule maps an uppercase keyword to a canonical category. The
// category names line up with the ones the demo fixture seeds, so for
// most users a keyword hit resolves to an existing category.
type keywordRule struct {
	Keyword  string
	Category string
	Icon     string
}

var builtinKeywords = []keywordRule{
	{"GROCERY", "Groceries", "shopping_cart"},
	{"GROCERIES", "Groceries", "shopping_cart"},
	{"SUPERMARKET", "Groceries", "shopping_cart"},
	{"WALMART", "Groceries", "shopping_cart"},
	{"COSTCO", "Groceries", "shopping_cart"},
	{"ALDI", "Groceries", "shopping_cart"},
	{"KROGER", "Groceries", "shopping_cart"},
	{"TRADER JOE", "Groceries", "shopping_cart"},

	{"RESTAURANT", "Dining Out", "restaurant"},
	{"DINNER", "Dining Out", "restaurant"},
	{"LUNCH", "Dining Out", "restaurant"},
	{"BRUNCH", "Dining Out", "restaurant"},
	{"PIZZA", "Dining Out", "restaurant"},
	{"BURGER", "Dining Out", "restaurant"},
	{"SUSHI", "Dining Out", "restaurant"},
	{"TAKEOUT", "Dining Out", "restaurant"},
	{"CHIPOTLE", "Dining Out", "restaurant"},
	{"MCDONALDS", "Dining Out", "restaurant"},

	{"UBER", "Transportation", "directions_car"},
	{"LYFT", "Transportation", "directions_car"},
	{"TAXI", "Transportation", "directions_car"},
	{"TRAIN", "Transportation", "directions_car"},
	{"METRO", "Transportation", "directions_car"},
	{"PARKING", "Transportation", "directions_car"},
	{"TOLL", "Transportation", "directions_car"},

	{"GAS", "Gas & Fuel", "local_gas_station"},
	{"FUEL", "Gas & Fuel", "local_gas_station"},
	{"PETROL", "Gas & Fuel", "local_gas_station"},
	{"SHELL", "Gas & Fuel", "local_gas_station"},
	{"CHEVRON", "Gas & Fuel", "local_gas_station"},

	{"MOVIE", "Entertainment", "movie"},
	{"CINEMA", "Entertainment", "movie"},
	{"NETFLIX", "Entertainment", "movie"},
	{"SPOTIFY", "Entertainment", "movie"},
	{"CONCERT", "Entertainment", "movie"},
	{"THEATER", "Entertainment", "movie"},

	{"GYM", "Health & Fitness", "fitness_center"},
	{"FITNESS", "Health & Fitness", "fitness_center"},
	{"YOGA", "Health & Fitness", "fitness_center"},
	{"PHARMACY", "Health & Fitness", "fitness_center"},
	{"DOCTOR", "Health & Fitness", "fitness_center"},

	{"ELECTRIC", "Utilities", "electric_bolt"},
	{"ELECTRICITY", "Utilities", "electric_bolt"},
	{"UTILITY", "Utilities", "electric_bolt"},
	{"INTERNET", "Utilities", "electric_bolt"},
	{"WATER BILL", "Utilities", "electric_bolt"},
	{"PHONE BILL", "Utilities", "electric_bolt"},

	{"AMAZON", "Shopping", "shopping_bag"},
	{"TARGET", "Shopping", "shopping_bag"},
	{"IKEA", "Shopping", "shopping_bag"},
	{"MALL", "Shopping", "shopping_bag"},
	{"CLOTHES", "Shopping", "shopping_bag"},
	{"SHOES", "Shopping", "shopping_bag"},

	{"FLIGHT", "Travel", "flight"},
	{"AIRLINE", "Travel", "flight"},
	{"AIRPORT", "Travel", "flight"},
	{"HOTEL", "Travel", "flight"},
	{"AIRBNB", "Travel", "flight"},
	{"HOSTEL", "Travel", "flight"},

	{"COFFEE", "Coffee & Tea", "local_cafe"},
	{"STARBUCKS", "Coffee & Tea", "local_cafe"},
	{"CAFE", "Coffee & Tea", "local_cafe"},
	{"LATTE", "Coffee & Tea", "local_cafe"},
	{"ESPRESSO", "Coffee & Tea", "local_cafe"},
	{"BOBA", "Coffee & Tea", "local_cafe"},
}
