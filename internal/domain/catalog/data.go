// internal/domain/catalog/data.go
package catalog

import (
	"sync"

	"lifecycle_notification_service/internal/domain/lifecycle"
)

// DefaultVersion identifies the built-in table. Bump it whenever rows change so
// materialized notifications can be traced back to the table that produced them.
const DefaultVersion = "2025.1"

const (
	CategoryInfectiousDisease = "infectious_disease"
	CategoryDevelopment       = "development"
	CategoryDental            = "dental"
	CategoryGeneralHealth     = "general_health"
	CategoryCancer            = "cancer"
	CategoryWomensHealth      = "womens_health"
	CategoryMensHealth        = "mens_health"
	CategoryChronicDisease    = "chronic_disease"
)

const (
	vaccinationLeadDays = 7
	checkupLeadDays     = 14
	screeningLeadDays   = 30
)

var (
	infantOnly      = []lifecycle.Stage{lifecycle.StageInfant}
	adolescentOnly  = []lifecycle.Stage{lifecycle.StageAdolescent}
	adultOnly       = []lifecycle.Stage{lifecycle.StageAdult}
	adultAndElderly = []lifecycle.Stage{lifecycle.StageAdult, lifecycle.StageElderly}
	elderlyOnly     = []lifecycle.Stage{lifecycle.StageElderly}
)

func months(n int) *int { return &n }
func years(n int) *int  { return &n }

func vaccine(code, name, category, series string, dose int, stages []lifecycle.Stage, description string) EventDefinition {
	return EventDefinition{
		Code:             code,
		Name:             name,
		Type:             EventTypeVaccination,
		Category:         category,
		TargetGender:     TargetBoth,
		ApplicableStages: stages,
		LeadDays:         vaccinationLeadDays,
		Description:      description,
		Series:           series,
		DoseNumber:       dose,
	}
}

func checkup(code, name, category, program string, stages []lifecycle.Stage, description string) EventDefinition {
	return EventDefinition{
		Code:             code,
		Name:             name,
		Type:             EventTypeCheckup,
		Category:         category,
		TargetGender:     TargetBoth,
		ApplicableStages: stages,
		LeadDays:         checkupLeadDays,
		Description:      description,
		Program:          program,
	}
}

func screening(code, name, category, program string, gender TargetGender, stages []lifecycle.Stage, description string) EventDefinition {
	return EventDefinition{
		Code:             code,
		Name:             name,
		Type:             EventTypeScreening,
		Category:         category,
		TargetGender:     gender,
		ApplicableStages: stages,
		LeadDays:         screeningLeadDays,
		Description:      description,
		Program:          program,
	}
}

func atMonths(e EventDefinition, n int) EventDefinition {
	e.TargetAgeMonths = months(n)
	return e
}

func atYears(e EventDefinition, n int) EventDefinition {
	e.TargetAgeYears = years(n)
	return e
}

func forGender(e EventDefinition, g TargetGender) EventDefinition {
	e.TargetGender = g
	return e
}

// builtinDefinitions is the national vaccination and health-screening schedule.
func builtinDefinitions() []EventDefinition {
	return []EventDefinition{
		// Infant vaccinations (one-time, month targeted).
		atMonths(vaccine("hepb_1st", "B형간염 1차 접종", CategoryInfectiousDisease, "hepb", 1, infantOnly,
			"출생 직후 B형간염 1차 예방접종 시기입니다. 가까운 지정 의료기관에서 접종해 주세요."), 0),
		atMonths(vaccine("hepb_2nd", "B형간염 2차 접종", CategoryInfectiousDisease, "hepb", 2, infantOnly,
			"생후 1개월, B형간염 2차 예방접종 시기입니다."), 1),
		atMonths(vaccine("dtap_ipv_hib_1st", "5가 혼합백신(DTaP-IPV/Hib) 1차 접종", CategoryInfectiousDisease, "dtap_ipv_hib", 1, infantOnly,
			"생후 2개월, 디프테리아·파상풍·백일해·폴리오·b형헤모필루스인플루엔자 5가 혼합백신 1차 접종 시기입니다."), 2),
		atMonths(vaccine("dtap_ipv_hib_2nd", "5가 혼합백신(DTaP-IPV/Hib) 2차 접종", CategoryInfectiousDisease, "dtap_ipv_hib", 2, infantOnly,
			"생후 4개월, 5가 혼합백신 2차 접종 시기입니다."), 4),
		atMonths(vaccine("dtap_ipv_hib_3rd", "5가 혼합백신(DTaP-IPV/Hib) 3차 접종", CategoryInfectiousDisease, "dtap_ipv_hib", 3, infantOnly,
			"생후 6개월, 5가 혼합백신 3차 접종 시기입니다."), 6),
		atMonths(vaccine("hepb_3rd", "B형간염 3차 접종", CategoryInfectiousDisease, "hepb", 3, infantOnly,
			"생후 6개월, B형간염 3차 예방접종 시기입니다."), 6),
		atMonths(vaccine("influenza_infant_1st", "어린이 인플루엔자 첫 접종", CategoryInfectiousDisease, "influenza", 1, infantOnly,
			"생후 6개월부터 인플루엔자 예방접종을 받을 수 있습니다. 첫 해에는 4주 간격으로 2회 접종합니다."), 6),
		atMonths(vaccine("mmr_1st", "MMR(홍역·유행성이하선염·풍진) 1차 접종", CategoryInfectiousDisease, "mmr", 1, infantOnly,
			"생후 12개월, MMR 1차 예방접종 시기입니다."), 12),
		atMonths(vaccine("varicella_1st", "수두 접종", CategoryInfectiousDisease, "varicella", 1, infantOnly,
			"생후 12개월, 수두 예방접종 시기입니다."), 12),
		atMonths(vaccine("hepa_1st", "A형간염 1차 접종", CategoryInfectiousDisease, "hepa", 1, infantOnly,
			"생후 12개월, A형간염 1차 예방접종 시기입니다."), 12),
		atMonths(vaccine("je_1st", "일본뇌염 1차 접종", CategoryInfectiousDisease, "je", 1, infantOnly,
			"생후 12개월, 일본뇌염 1차 예방접종 시기입니다."), 12),
		atMonths(vaccine("pcv_booster", "폐렴구균 추가 접종", CategoryInfectiousDisease, "pcv", 4, infantOnly,
			"생후 12개월, 폐렴구균 추가(4차) 접종 시기입니다."), 12),
		atMonths(vaccine("dtap_4th", "DTaP 4차 접종", CategoryInfectiousDisease, "dtap", 4, infantOnly,
			"생후 15개월, DTaP 4차 추가 접종 시기입니다."), 15),
		atMonths(vaccine("hepa_2nd", "A형간염 2차 접종", CategoryInfectiousDisease, "hepa", 2, infantOnly,
			"A형간염 1차 접종 후 6개월이 지나 2차 접종 시기입니다."), 18),
		atMonths(vaccine("dtap_5th", "DTaP 5차 접종", CategoryInfectiousDisease, "dtap", 5, infantOnly,
			"만 4세, DTaP 5차 추가 접종 시기입니다."), 48),
		atMonths(vaccine("ipv_4th", "폴리오(IPV) 4차 접종", CategoryInfectiousDisease, "ipv", 4, infantOnly,
			"만 4세, 폴리오 4차 추가 접종 시기입니다."), 48),
		atMonths(vaccine("mmr_2nd", "MMR 2차 접종", CategoryInfectiousDisease, "mmr", 2, infantOnly,
			"만 4세, MMR 2차 예방접종 시기입니다."), 48),

		// Infant health and dental checkups.
		atMonths(checkup("checkup_infant_4months", "영유아 건강검진 1차", CategoryDevelopment, "infant_health_screening", infantOnly,
			"생후 4~6개월 영유아 건강검진 시기입니다. 성장·발달 상태를 확인해 보세요."), 4),
		atMonths(checkup("checkup_infant_9months", "영유아 건강검진 2차", CategoryDevelopment, "infant_health_screening", infantOnly,
			"생후 9~12개월 영유아 건강검진 시기입니다."), 9),
		atMonths(checkup("checkup_infant_18months", "영유아 건강검진 3차", CategoryDevelopment, "infant_health_screening", infantOnly,
			"생후 18~24개월 영유아 건강검진 시기입니다."), 18),
		atMonths(checkup("dental_infant_18months", "영유아 구강검진 1차", CategoryDental, "infant_dental_screening", infantOnly,
			"생후 18~29개월 영유아 구강검진 시기입니다."), 18),
		atMonths(checkup("checkup_infant_30months", "영유아 건강검진 4차", CategoryDevelopment, "infant_health_screening", infantOnly,
			"생후 30~36개월 영유아 건강검진 시기입니다."), 30),
		atMonths(checkup("checkup_infant_42months", "영유아 건강검진 5차", CategoryDevelopment, "infant_health_screening", infantOnly,
			"생후 42~48개월 영유아 건강검진 시기입니다."), 42),
		atMonths(checkup("dental_infant_42months", "영유아 구강검진 2차", CategoryDental, "infant_dental_screening", infantOnly,
			"생후 42~53개월 영유아 구강검진 시기입니다."), 42),
		atMonths(checkup("checkup_infant_54months", "영유아 건강검진 6차", CategoryDevelopment, "infant_health_screening", infantOnly,
			"생후 54~60개월 영유아 건강검진 시기입니다."), 54),
		atMonths(checkup("checkup_infant_66months", "영유아 건강검진 7차", CategoryDevelopment, "infant_health_screening", infantOnly,
			"생후 66~71개월 영유아 건강검진 시기입니다. 취학 전 마지막 검진입니다."), 66),

		// School age.
		atYears(checkup("checkup_school_7years", "초등학교 1학년 학생건강검진", CategoryGeneralHealth, "student_health_screening", adolescentOnly,
			"초등학교 1학년 학생건강검진 대상입니다. 학교에서 안내하는 지정 검진기관을 이용해 주세요."), 7),
		atYears(checkup("checkup_school_10years", "초등학교 4학년 학생건강검진", CategoryGeneralHealth, "student_health_screening", adolescentOnly,
			"초등학교 4학년 학생건강검진 대상입니다."), 10),
		atYears(vaccine("tdap_11years", "Tdap 추가 접종", CategoryInfectiousDisease, "tdap", 6, adolescentOnly,
			"만 11~12세, Tdap(파상풍·디프테리아·백일해) 추가 접종 시기입니다."), 11),
		forGender(atYears(vaccine("hpv_12years", "HPV 예방접종", CategoryWomensHealth, "hpv", 1, adolescentOnly,
			"만 12세 여아 대상 사람유두종바이러스(HPV) 예방접종 시기입니다. 6개월 간격으로 2회 접종합니다."), 12), TargetFemale),
		atYears(checkup("checkup_school_13years", "중학교 1학년 학생건강검진", CategoryGeneralHealth, "student_health_screening", adolescentOnly,
			"중학교 1학년 학생건강검진 대상입니다."), 13),
		atYears(checkup("checkup_school_16years", "고등학교 1학년 학생건강검진", CategoryGeneralHealth, "student_health_screening", adolescentOnly,
			"고등학교 1학년 학생건강검진 대상입니다."), 16),

		// Adults.
		atYears(vaccine("td_booster_adult", "Td 추가 접종", CategoryInfectiousDisease, "td", 1, adultOnly,
			"성인은 10년마다 Td(파상풍·디프테리아) 추가 접종을 권장합니다."), 19),
		atYears(checkup("national_checkup_20years", "국가 일반건강검진", CategoryGeneralHealth, "national_health_screening", adultAndElderly,
			"만 20세 이상은 2년마다 국가 일반건강검진 대상입니다."), 20),
		atYears(screening("cervical_cancer_20years", "자궁경부암 검진", CategoryCancer, "national_cancer_screening", TargetFemale, adultAndElderly,
			"만 20세 이상 여성은 2년마다 자궁경부암 검진 대상입니다."), 20),
		atYears(checkup("transition_checkup_40years", "생애전환기 건강진단(40세)", CategoryChronicDisease, "life_transition_screening", adultOnly,
			"만 40세 생애전환기 건강진단 대상입니다. 만성질환 위험요인을 점검해 보세요."), 40),
		atYears(screening("gastric_cancer_40years", "위암 검진", CategoryCancer, "national_cancer_screening", TargetBoth, adultAndElderly,
			"만 40세 이상은 2년마다 위내시경 검진 대상입니다."), 40),
		atYears(screening("breast_cancer_40years", "유방암 검진", CategoryCancer, "national_cancer_screening", TargetFemale, adultAndElderly,
			"만 40세 이상 여성은 2년마다 유방촬영 검진 대상입니다."), 40),
		atYears(screening("colorectal_cancer_50years", "대장암 검진", CategoryCancer, "national_cancer_screening", TargetBoth, adultAndElderly,
			"만 50세 이상은 매년 분변잠혈검사 대상입니다."), 50),
		atYears(vaccine("shingles_50years", "대상포진 예방접종", CategoryInfectiousDisease, "zoster", 1, adultAndElderly,
			"만 50세 이상은 대상포진 예방접종을 권장합니다."), 50),
		atYears(screening("prostate_check_50years", "전립선 검진", CategoryMensHealth, "prostate_screening", TargetMale, adultAndElderly,
			"만 50세 이상 남성은 전립선특이항원(PSA) 검사를 상담해 보세요."), 50),
		atYears(screening("bone_density_54years", "골밀도 검사(54세)", CategoryWomensHealth, "life_transition_screening", TargetFemale, adultOnly,
			"만 54세 여성은 생애전환기 골밀도 검사 대상입니다."), 54),
		atYears(screening("lung_cancer_54years", "폐암 검진", CategoryCancer, "national_cancer_screening", TargetBoth, adultAndElderly,
			"만 54~74세 고위험 흡연자는 2년마다 저선량 흉부CT 검진 대상입니다."), 54),

		// Elderly.
		atYears(vaccine("pneumococcal_65years", "폐렴구균 예방접종", CategoryInfectiousDisease, "ppsv23", 1, elderlyOnly,
			"만 65세 이상은 폐렴구균(PPSV23) 예방접종을 무료로 받을 수 있습니다."), 65),
		atYears(vaccine("influenza_65years", "어르신 인플루엔자 예방접종", CategoryInfectiousDisease, "influenza", 1, elderlyOnly,
			"만 65세 이상은 매년 인플루엔자 예방접종을 무료로 받을 수 있습니다."), 65),
		atYears(checkup("transition_checkup_66years", "생애전환기 건강진단(66세)", CategoryChronicDisease, "life_transition_screening", elderlyOnly,
			"만 66세 생애전환기 건강진단 대상입니다. 낙상·인지기능 검사가 포함됩니다."), 66),
		atYears(checkup("cognitive_screening_66years", "인지기능 검사", CategoryChronicDisease, "dementia_screening", elderlyOnly,
			"만 66세 이상은 2년마다 인지기능 장애 검사 대상입니다."), 66),
		atYears(screening("bone_density_66years", "골밀도 검사(66세)", CategoryWomensHealth, "life_transition_screening", TargetFemale, elderlyOnly,
			"만 66세 여성은 생애전환기 골밀도 검사 대상입니다."), 66),
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog. It is constructed once per process.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = New(DefaultVersion, builtinDefinitions())
	})
	return defaultCatalog
}
