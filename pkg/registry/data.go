// pkg/registry/data.go
package registry

// Default builds the compiled-in canonical dataset. It backs zero-config
// startup and tests; deployments override it with Load. The data goes through
// the same schema validation as a file would, so a bad edit fails fast.
func Default() *Tables {
	t, err := Parse([]byte(defaultDocument))
	if err != nil {
		panic("registry: default dataset invalid: " + err.Error())
	}
	return t
}

const defaultDocument = `{
  "version": "2024-07",
  "states": [
    "andhra pradesh", "arunachal pradesh", "assam", "bihar", "chhattisgarh",
    "goa", "gujarat", "haryana", "himachal pradesh", "jharkhand", "karnataka",
    "kerala", "madhya pradesh", "maharashtra", "manipur", "meghalaya",
    "mizoram", "nagaland", "odisha", "punjab", "rajasthan", "sikkim",
    "tamil nadu", "telangana", "tripura", "uttar pradesh", "uttarakhand",
    "west bengal", "delhi", "jammu and kashmir", "ladakh", "chandigarh",
    "puducherry", "andaman and nicobar islands", "lakshadweep"
  ],
  "stateAliases": {
    "up": "uttar pradesh",
    "mp": "madhya pradesh",
    "hp": "himachal pradesh",
    "tn": "tamil nadu",
    "ap": "andhra pradesh",
    "wb": "west bengal",
    "jk": "jammu and kashmir",
    "orissa": "odisha",
    "pondicherry": "puducherry",
    "bengal": "west bengal",
    "new delhi": "delhi"
  },
  "cities": {
    "mumbai": "maharashtra",
    "navi mumbai": "maharashtra",
    "pune": "maharashtra",
    "nagpur": "maharashtra",
    "nashik": "maharashtra",
    "lasalgaon": "maharashtra",
    "jaipur": "rajasthan",
    "jodhpur": "rajasthan",
    "kota": "rajasthan",
    "udaipur": "rajasthan",
    "bikaner": "rajasthan",
    "bengaluru": "karnataka",
    "bangalore": "karnataka",
    "mysuru": "karnataka",
    "hubli": "karnataka",
    "kolkata": "west bengal",
    "siliguri": "west bengal",
    "chennai": "tamil nadu",
    "coimbatore": "tamil nadu",
    "thanjavur": "tamil nadu",
    "madurai": "tamil nadu",
    "hyderabad": "telangana",
    "warangal": "telangana",
    "kurnool": "andhra pradesh",
    "guntur": "andhra pradesh",
    "vijayawada": "andhra pradesh",
    "ahmedabad": "gujarat",
    "rajkot": "gujarat",
    "surat": "gujarat",
    "vadodara": "gujarat",
    "lucknow": "uttar pradesh",
    "kanpur": "uttar pradesh",
    "varanasi": "uttar pradesh",
    "agra": "uttar pradesh",
    "meerut": "uttar pradesh",
    "indore": "madhya pradesh",
    "bhopal": "madhya pradesh",
    "gwalior": "madhya pradesh",
    "patna": "bihar",
    "ludhiana": "punjab",
    "amritsar": "punjab",
    "jalandhar": "punjab",
    "karnal": "haryana",
    "hisar": "haryana",
    "gurugram": "haryana",
    "bhubaneswar": "odisha",
    "cuttack": "odisha",
    "ranchi": "jharkhand",
    "raipur": "chhattisgarh",
    "guwahati": "assam",
    "dehradun": "uttarakhand",
    "shimla": "himachal pradesh",
    "srinagar": "jammu and kashmir",
    "thiruvananthapuram": "kerala",
    "kochi": "kerala"
  },
  "pincodePrefixes": {
    "110": "delhi",
    "121": "haryana", "122": "haryana", "124": "haryana", "125": "haryana",
    "132": "haryana",
    "140": "punjab", "141": "punjab", "143": "punjab", "144": "punjab",
    "147": "punjab", "148": "punjab", "152": "punjab",
    "160": "chandigarh",
    "171": "himachal pradesh",
    "180": "jammu and kashmir", "190": "jammu and kashmir",
    "201": "uttar pradesh", "208": "uttar pradesh", "211": "uttar pradesh",
    "221": "uttar pradesh", "226": "uttar pradesh", "243": "uttar pradesh",
    "250": "uttar pradesh", "281": "uttar pradesh",
    "248": "uttarakhand", "263": "uttarakhand",
    "301": "rajasthan", "302": "rajasthan", "303": "rajasthan",
    "305": "rajasthan", "313": "rajasthan", "324": "rajasthan",
    "334": "rajasthan", "342": "rajasthan",
    "360": "gujarat", "361": "gujarat", "380": "gujarat", "382": "gujarat",
    "390": "gujarat", "395": "gujarat",
    "400": "maharashtra", "410": "maharashtra", "411": "maharashtra",
    "413": "maharashtra", "414": "maharashtra", "422": "maharashtra",
    "425": "maharashtra", "431": "maharashtra", "440": "maharashtra",
    "442": "maharashtra", "444": "maharashtra",
    "403": "goa",
    "452": "madhya pradesh", "462": "madhya pradesh", "474": "madhya pradesh",
    "492": "chhattisgarh",
    "500": "telangana", "505": "telangana", "506": "telangana",
    "515": "andhra pradesh", "517": "andhra pradesh", "518": "andhra pradesh",
    "520": "andhra pradesh", "522": "andhra pradesh", "530": "andhra pradesh",
    "560": "karnataka", "570": "karnataka", "580": "karnataka",
    "590": "karnataka",
    "600": "tamil nadu", "605": "puducherry", "613": "tamil nadu",
    "620": "tamil nadu", "625": "tamil nadu", "636": "tamil nadu",
    "641": "tamil nadu",
    "670": "kerala", "682": "kerala", "695": "kerala",
    "700": "west bengal", "711": "west bengal", "721": "west bengal",
    "734": "west bengal",
    "737": "sikkim",
    "744": "andaman and nicobar islands",
    "751": "odisha", "753": "odisha",
    "781": "assam", "786": "assam",
    "791": "arunachal pradesh",
    "793": "meghalaya", "795": "manipur", "796": "mizoram", "797": "nagaland",
    "799": "tripura",
    "800": "bihar", "812": "bihar", "821": "bihar", "845": "bihar",
    "831": "jharkhand", "834": "jharkhand"
  },
  "commodities": [
    "wheat", "rice", "paddy", "maize", "bajra", "jowar", "ragi", "barley",
    "chickpea", "lentil", "green gram", "black gram", "pigeon pea",
    "mustard", "groundnut", "soybean", "sunflower", "sesame", "castor seed",
    "cotton", "sugarcane", "jute",
    "onion", "potato", "tomato", "brinjal", "cabbage", "cauliflower",
    "okra", "peas", "carrot", "beetroot", "garlic", "ginger",
    "turmeric", "chilli", "coriander", "cumin",
    "banana", "mango", "apple", "grapes", "orange", "pomegranate",
    "papaya", "guava", "coconut", "arecanut", "tea", "coffee"
  ],
  "commoditySynonyms": {
    "chikpea": "chickpea",
    "chana": "chickpea",
    "gram": "chickpea",
    "bengal gram": "chickpea",
    "kabuli chana": "chickpea",
    "dal": "lentil",
    "masoor": "lentil",
    "moong": "green gram",
    "urad": "black gram",
    "arhar": "pigeon pea",
    "tur": "pigeon pea",
    "toor": "pigeon pea",
    "gehu": "wheat",
    "gehun": "wheat",
    "wheet": "wheat",
    "chawal": "rice",
    "basmati": "rice",
    "dhan": "paddy",
    "makka": "maize",
    "makki": "maize",
    "pyaz": "onion",
    "kanda": "onion",
    "onian": "onion",
    "aloo": "potato",
    "potatos": "potato",
    "tamatar": "tomato",
    "tomatos": "tomato",
    "sarson": "mustard",
    "mungfali": "groundnut",
    "peanut": "groundnut",
    "kapas": "cotton",
    "ganna": "sugarcane",
    "sugar cane": "sugarcane",
    "haldi": "turmeric",
    "mirchi": "chilli",
    "red chilli": "chilli",
    "bhindi": "okra",
    "lady finger": "okra",
    "baingan": "brinjal",
    "til": "sesame",
    "soya": "soybean",
    "soyabean": "soybean",
    "jeera": "cumin",
    "dhania": "coriander"
  }
}`
