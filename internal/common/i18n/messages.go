package i18n

type entry struct {
	key string
	en  string
	ar  string
}

var entries = []entry{
	{"nav.personalInfo", "Personal Information", "المعلومات الشخصية"},
	{"nav.familyFinancial", "Family & Financial Info", "معلومات الأسرة والمالية"},
	{"nav.situationDescriptions", "Situation Descriptions", "وصف الحالة"},

	{"validation.required", "This field is required", "هذا الحقل مطلوب"},
	{"validation.email", "Please enter a valid email address", "يرجى إدخال بريد إلكتروني صحيح"},
	{"validation.phone", "Please enter a valid phone number", "يرجى إدخال رقم هاتف صحيح"},
	{"validation.minLength", "Minimum length is %d characters", "الحد الأدنى للطول %d أحرف"},
	{"validation.negative", "Value must not be negative", "لا يمكن أن تكون القيمة سالبة"},
	{"validation.min", "Value must be at least %v", "يجب ألا تقل القيمة عن %v"},
	{"validation.max", "Value must be at most %v", "يجب ألا تزيد القيمة عن %v"},
	{"validation.number", "Please enter a valid number", "يرجى إدخال رقم صحيح"},
	{"validation.integer", "Please enter a whole number", "يرجى إدخال عدد صحيح"},
	{"validation.pattern", "Invalid format", "التنسيق غير صالح"},
	{"validation.type", "Invalid value", "قيمة غير صالحة"},
	{"validation.oneOf", "Please select a valid option", "يرجى اختيار قيمة صالحة"},

	{"situation.generating", "Generating suggestion...", "جاري إنشاء الاقتراح..."},
	{"situation.error", "Failed to generate suggestion", "فشل في إنشاء الاقتراح"},

	{"ai.credentialRequired", "An API key is required to use AI assistance", "مطلوب مفتاح API لاستخدام المساعدة الذكية"},
	{"ai.inFlight", "A suggestion is already being generated", "جاري إنشاء اقتراح بالفعل"},
	{"ai.noSuggestion", "There is no suggestion to apply", "لا يوجد اقتراح لتطبيقه"},

	{"app.submitting", "Submitting application...", "جاري تقديم الطلب..."},
	{"app.success", "Application submitted successfully!", "تم تقديم الطلب بنجاح!"},
	{"app.error", "An error occurred while submitting your application", "حدث خطأ أثناء تقديم طلبك"},

	{"notification.subject", "Your social support application was received", "تم استلام طلب الدعم الاجتماعي الخاص بك"},
	{"notification.body", "Dear %s, your application %s has been submitted successfully.", "عزيزي %s، تم تقديم طلبك %s بنجاح."},
}
