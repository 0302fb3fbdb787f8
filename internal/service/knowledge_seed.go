package service

// defaultCampusFacts 空库首启时的默认校园知识
type seedFact struct {
	Content  string
	Source   string
	Category string
}

var defaultCampusFacts = []seedFact{
	{
		Content:  "Pritchard Library is open 7am to midnight Monday through Thursday, 7am to 9pm Friday, 10am to 9pm Saturday, and 10am to midnight Sunday during the semester. Hours extend to 24/7 during finals week.",
		Source:   "Riverton State Library",
		Category: "Resources",
	},
	{
		Content:  "Memorial Stadium holds 41,000 fans and sits on the west edge of campus. Student gates open three hours before kickoff, and students enter free with their Ram Card at Gate C.",
		Source:   "Riverton Athletics",
		Category: "Athletics",
	},
	{
		Content:  "Ram Walk happens two hours before every home football kickoff: the team walks from Alumni Hall to Memorial Stadium through a tunnel of fans. Showing up earns Spirit Points at the check-in table.",
		Source:   "Riverton Athletics",
		Category: "Traditions",
	},
	{
		Content:  "The Victory Bell next to Old Main is rung by students after every home win. The tradition dates to 1948, when the bell was salvaged from the original campus chapel.",
		Source:   "Student Traditions Guide",
		Category: "Traditions",
	},
	{
		Content:  "Official tailgate lots open four hours before kickoff in Lots R3 and R4. Grills are allowed, glass is not, and the Spirit Squad tent in R3 runs games with point giveaways.",
		Source:   "Campus Events Office",
		Category: "Events",
	},
	{
		Content:  "Away-game watch parties are hosted in the Union Grand Hall with free pizza for the first 200 students. Check in with your Ram Card to earn event points.",
		Source:   "Campus Events Office",
		Category: "Events",
	},
	{
		Content:  "Spirit Points are earned by asking SpiritBot questions, attending events, keeping daily streaks, and submitting feedback. Points unlock prizes from sticker packs at 10 points up to season tickets at 1000.",
		Source:   "Spirit Rewards Program",
		Category: "Rewards",
	},
	{
		Content:  "The Rec Center on Birch Street is open 6am to 11pm on weekdays and 8am to 10pm on weekends, with free climbing wall sessions for students on Friday afternoons.",
		Source:   "Campus Recreation",
		Category: "Resources",
	},
	{
		Content:  "Late-night dining at The Trough in the Union runs until 1am on weekdays and 2am on game days. Meal swipes are accepted until close.",
		Source:   "Campus Dining",
		Category: "Dining",
	},
	{
		Content:  "Riverton State's colors are crimson and gold, the mascot is Rameses the Ram, and the fight song is Charge of the Rams, played after every home score.",
		Source:   "Student Traditions Guide",
		Category: "Traditions",
	},
	{
		Content:  "The Student Hub desk on the Union first floor posts all upcoming events, tailgates, and watch parties, and is the place to resolve Spirit Point issues in person.",
		Source:   "Student Hub",
		Category: "Resources",
	},
}
