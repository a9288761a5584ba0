package chat

import (
	"fmt"
	"strings"
)

// CategoryContext is the slice of a category embedded in the prompt.
type CategoryContext struct {
	Name string
	Icon string
}

// buildPrompt assembles the extraction instructions around the user's
// text. Existing categories and groups are listed so the model reuses
// them instead of inventing near-duplicates.
func buildPrompt(input string, groups []string, categories []CategoryContext) string {
	groupsStr := "No groups"
	if len(groups) > 0 {
		groupsStr = strings.Join(groups, ", ")
	}

	categoriesStr := "No categories"
	if len(categories) > 0 {
		parts := make([]string, len(categories))
		for i, c := range categories {
			parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Icon)
		}
		categoriesStr = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`You are an AI assistant helping to parse expense information from natural language.

User Input: %q

Existing User Groups: %s
Existing User Categories: %s

TASK: Parse the user input and extract ALL expenses mentioned. The user might mention multiple expenses in one sentence.

For EACH expense found, extract:
1. amount (numeric value only, no currency symbols)
2. description (brief description of what was purchased)
3. category_name (match to existing categories if possible, or suggest a new category name)
4. group_name (match to existing groups if mentioned, otherwise null)
5. is_new_category (true if this is a new category not in the existing list)
6. suggested_icon (if is_new_category is true, suggest a valid Google Material Symbol icon name that fits the category)

IMPORTANT RULES:
- If multiple expenses are mentioned, return an array of expense objects
- For amounts, extract only the numeric value (e.g., "500" from "$500" or "500 rupees")
- Match group names case-insensitively to existing groups
- For categories, try to match existing ones first
- If creating a new category, suggest an appropriate Material Symbol icon name (e.g., "shopping_cart", "restaurant", "sports_tennis", "medical_services", "local_gas_station", "flight", "home", "phone", "computer", "book", "music_note", "movie", "fitness_center")
- Use today's date if no date is mentioned
- Be smart about category matching (e.g., "food" could match "Food & Dining", "groceries" could match "Groceries")

Return ONLY a valid JSON object with this exact structure:
{
    "expenses": [
        {
            "amount": "500.00",
            "description": "Dinner at restaurant",
            "category_name": "Food & Dining",
            "group_name": "Trekking Group",
            "is_new_category": false,
            "suggested_icon": null
        },
        {
            "amount": "2000.00",
            "description": "Tent purchase",
            "category_name": "Outdoor Gear",
            "group_name": "Trekking Group",
            "is_new_category": true,
            "suggested_icon": "camping"
        }
    ]
}

Return ONLY the JSON, no additional text or explanations.`, input, groupsStr, categoriesStr)
}
