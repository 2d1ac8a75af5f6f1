package intent

const arabicWord = `(\p{Arabic}+)`

func arabicTable() *TableBuilder {
	return NewTableBuilder("ar").
		Substitute(`[إأآ]`, "ا").
		Substitute(`ة`, "ه").
		Intent(Greeting, `مرحبا`, `اهلا`, `السلام عليكم`, `صباح الخير`, `مساء الخير`).
		Intent(HowAreYou, `كيف (حالك|انت|الحال)`, `هل انت بخير`).
		Intent(Goodbye, `مع السلامه`, `وداعا`, `الى اللقاء`).
		Intent(Time, `كم الساعه`, `ما الوقت`, `الساعه كم`, `الوقت الحالي`, `اخبرني بالوقت`).
		Intent(Date, `ما التاريخ`, `التاريخ الحالي`, `تاريخ اليوم`, `اي يوم`).
		Intent(Weather, `الطقس`, `درجه الحراره`, `هل تمطر`).
		Intent(Joke, `نكته`, `اضحكني`).
		Intent(Quote, `اقتباس`, `حكمه`).
		Intent(News, `اخبار`).
		Intent(Help, `مساعده`, `ساعدني`, `ماذا يمكنك`).
		Intent(Calculate, `احسب`, `كم يساوي`).
		Intent(Search, `ابحث عن`, `بحث`).
		Intent(Define, `ما معنى`, `تعريف`).
		Intent(Reminder, `ذكرني`, `تذكير`).
		Intent(Music, `موسيقى`, `شغل (اغنيه|موسيقى)`).
		Intent(OpenApp, `افتح (تطبيق|برنامج|المتصفح)`).
		Intent(CloseApp, `اغلق (تطبيق|برنامج|المتصفح)`).
		Intent(EmailInbox, `(تحقق من|افتح|اظهر|اقرا) (البريد|بريدي)`, `صندوق البريد`, `بريد جديد`).
		Intent(EmailRead, `اقرا اخر (بريد|رساله)`, `بريد من`).
		Intent(EmailCompose, `اكتب (بريد|رساله)`, `انشاء (بريد|رساله)`).
		Intent(EmailReply, `رد على`, `رد تلقائي`).
		Intent(EmailSend, `ارسل (بريد|رساله|الرد)`).
		Intent(EmailOrganize, `(نظم|رتب) (البريد|بريدي)`).
		Entity(EntityEmailCount, `(\d+)\s*(?:رسائل|رساله|بريد)`).
		Entity(EntitySenderName, `(?:بريد|رساله) من `+arabicWord).
		Entity(EntityCityName, `(?:الطقس|طقس) في `+arabicWord).
		Entity(EntityMathExpression, mathExpr).
		Example(Time, "كم الساعة").
		Example(EmailInbox, "افتح البريد")
}
