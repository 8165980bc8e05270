package content

// Bundled fallback dataset, used whenever the remote content tables are
// unreachable or empty. Kept big enough to fill every content block of the
// default script.

var LocalQuestions = []Item{
	{
		ID: "q1", Kind: KindQuiz, Category: "Personal Music",
		Text:         "Which artist shows up in both couples' playlists?",
		Options:      []string{"Bruno Mars", "Hamza", "Tayc", "Shenseea"},
		CorrectIndex: 1,
		Explanation:  "Hamza is the one everybody streams.",
	},
	{
		ID: "q2", Kind: KindQuiz, Category: "Personal Music",
		Text:         "Who has 'Talking to the Moon' in their liked songs?",
		Options:      []string{"Team A", "Team B", "Both", "Nobody"},
		CorrectIndex: 1,
		Explanation:  "Bruno Mars, the hopeless romantic pick.",
	},
	{
		ID: "q3", Kind: KindQuiz, Category: "Personal Music",
		Text:         "Which duet closes out the shared road-trip playlist?",
		Options:      []string{"Tsunami", "Forever", "Yesterday", "Blessed"},
		CorrectIndex: 0,
		Explanation:  "Tsunami, the one everyone screams along to.",
	},
	{
		ID: "q4", Kind: KindQuiz, Category: "Personal Music",
		Text:         "Which track gets skipped every single time?",
		Options:      []string{"The slow one", "The live version", "The remix", "None, ever"},
		CorrectIndex: 2,
		Explanation:  "The remix never survives the first chorus.",
	},
	{
		ID: "q5", Kind: KindQuiz, Category: "Personal Music",
		Text:         "Whose playlist has the most love songs?",
		Options:      []string{"The host", "Player one", "Player two", "It's a tie"},
		CorrectIndex: 3,
		Explanation:  "Checked the counts; dead even.",
	},
	{
		ID: "q6", Kind: KindQuiz, Category: "Personal Music",
		Text:         "Which R&B classic is in the couple's shared playlist?",
		Options:      []string{"Let Me Love You", "Yeah!", "Ignition", "No Scrubs"},
		CorrectIndex: 0,
		Explanation:  "Mario's Let Me Love You, a timeless one.",
	},
	{
		ID: "q7", Kind: KindQuiz, Category: "Love & Series",
		Text:         "Which series did the couple binge in a single weekend?",
		Options:      []string{"The office comedy", "The crime drama", "The dating show", "The space opera"},
		CorrectIndex: 2,
		Explanation:  "The dating show. No regrets were expressed.",
	},
	{
		ID: "q8", Kind: KindQuiz, Category: "Love & Series",
		Text:         "Who cried first during the season finale?",
		Options:      []string{"Nobody", "Both at once", "The one who picked the show", "The skeptic"},
		CorrectIndex: 3,
		Explanation:  "The skeptic. Always the skeptic.",
	},
	{
		ID: "q9", Kind: KindQuiz, Category: "Love & Series",
		Text:         "What's the agreed punishment for watching an episode alone?",
		Options:      []string{"Rewatch together", "Dish duty for a week", "Silent treatment", "Nothing, it's allowed"},
		CorrectIndex: 0,
		Explanation:  "You rewatch it and you act surprised.",
	},
	{
		ID: "q10", Kind: KindQuiz, Category: "Love & Series",
		Text:         "Which on-screen couple do they compare themselves to?",
		Options:      []string{"The chaotic one", "The slow-burn one", "The doomed one", "They refuse to answer"},
		CorrectIndex: 1,
		Explanation:  "Slow burn, allegedly.",
	},
	{
		ID: "q11", Kind: KindQuiz, Category: "Love & Series",
		Text:         "How many times has Titanic been watched in this group?",
		Options:      []string{"Once", "Twice", "Ten times", "Never, somehow"},
		CorrectIndex: 2,
		Explanation:  "Ten confirmed viewings and counting.",
	},
	{
		ID: "q12", Kind: KindQuiz, Category: "General Culture",
		Text:         "Which flower is the classic Valentine's gift?",
		Options:      []string{"Tulip", "Rose", "Peony", "Sunflower"},
		CorrectIndex: 1,
		Explanation:  "The rose, obviously.",
	},
	{
		ID: "q13", Kind: KindQuiz, Category: "General Culture",
		Text:         "In which city is the 'love lock' bridge tradition most famous?",
		Options:      []string{"Rome", "Venice", "Paris", "Prague"},
		CorrectIndex: 2,
		Explanation:  "The Pont des Arts in Paris, before the locks came down.",
	},
}

var LocalDebates = []Item{
	{
		ID: "d1", Kind: KindDebate, Category: "Couple",
		Title:    "Phone at dinner",
		Scenario: "Your partner checks their phone at every dinner out.",
		OptionA:  "Call it out every time",
		OptionB:  "Let it go, pick your battles",
	},
	{
		ID: "d2", Kind: KindDebate, Category: "Couple",
		Title:    "Separate vacations",
		Scenario: "One yearly trip apart, each with their own friends.",
		OptionA:  "Healthy, do it",
		OptionB:  "Vacations are for us",
	},
	{
		ID: "d3", Kind: KindDebate, Category: "Future",
		Title:    "City or countryside",
		Scenario: "You can settle down anywhere, but it's final.",
		OptionA:  "City, forever",
		OptionB:  "Countryside, peace",
	},
	{
		ID: "d4", Kind: KindDebate, Category: "Future",
		Title:    "The five-year plan",
		Scenario: "One of you wants everything planned, the other improvises.",
		OptionA:  "Plan it all",
		OptionB:  "Figure it out live",
	},
	{
		ID: "d5", Kind: KindDebate, Category: "Relationship",
		Title:    "Shared accounts",
		Scenario: "All money in one pot from day one.",
		OptionA:  "One pot",
		OptionB:  "Yours, mine, ours",
	},
}
