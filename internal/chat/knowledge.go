// Package chat answers product-label questions with a cloud generative
// model grounded on a small fixed knowledge corpus
package chat

// Document is one entry of the fixed knowledge corpus
type Document struct {
	ID    string
	Title string
	Body  string
}

// corpus is the built-in knowledge base. Small on purpose: retrieval slices
// context windows out of these bodies, nothing is fetched at runtime.
var corpus = []Document{
	{
		ID:    "expiry-labeling",
		Title: "소비기한 표시제",
		Body: "2023년부터 식품 표시는 유통기한 대신 소비기한을 사용한다. " +
			"소비기한은 표시된 보관 조건에서 섭취해도 안전한 기한을 뜻하며, " +
			"유통기한은 판매가 허용되는 기한이었다. 소비기한은 유통기한보다 길게 " +
			"설정되므로 라벨 교체 시 날짜 혼동에 주의해야 한다. 라벨에는 " +
			"\"소비기한 : YYYY-MM-DD\" 형식으로 인쇄한다.",
	},
	{
		ID:    "remaining-shelf-life",
		Title: "잔여 유통(소비)기한 입고 기준",
		Body: "물류센터 입고 시 잔여 소비기한이 전체 기한의 50% 이상 남아 있어야 " +
			"정상 입고된다. 신선식품 등 일부 카테고리는 40% 기준이 적용된다. " +
			"잔여 기한이 기준 미만이면 입고가 거부되고 반송 처리되므로, 라벨의 " +
			"소비기한과 제조일자를 함께 확인해야 한다.",
	},
	{
		ID:    "barcode-formats",
		Title: "상품 바코드 형식",
		Body: "국내 유통 상품은 EAN-13 바코드를 사용하며 한국 국가코드는 880으로 " +
			"시작한다. 마지막 자리는 체크섬이다. 소형 포장은 EAN-8을 쓸 수 있고, " +
			"사내 관리용 SKU나 박스 라벨에는 CODE128을 쓴다. 상세 페이지 연결이나 " +
			"반품 접수용 링크에는 QR 코드를 쓴다.",
	},
	{
		ID:    "returns",
		Title: "반품 및 라벨 불일치 처리",
		Body: "바코드와 실물 상품이 불일치하면 반품 사유가 된다. 라벨 재출력 시 " +
			"상품명, 소비기한, 바코드 값을 원본 발주서와 대조한 뒤 출력한다. " +
			"오출력 라벨은 폐기하고 동일 지면에 재인쇄하지 않는다.",
	},
	{
		ID:    "print-sheet",
		Title: "라벨 시트 인쇄 권장 설정",
		Body: "라벨 시트는 A4 용지 기준 300 DPI(2480x3508 픽셀)로 생성한다. " +
			"격자 행·열 수와 여백은 라벨지 규격에 맞추고, 바코드가 잘리지 않도록 " +
			"셀 하단 여유 공간을 확인한다. 상품명이 길면 최대 줄 수를 늘리기보다 " +
			"글자 크기를 줄이는 편이 스캔 품질에 유리하다.",
	},
}

// Corpus returns the built-in documents
func Corpus() []Document {
	return corpus
}
