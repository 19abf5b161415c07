package assets

import _ "embed" // 에셋 임베드용

// BadgeCatalogYAML 는 기본 배지 카탈로그(트리거/보상 XP 시드)다.
//
//go:embed catalog/badges.yml
var BadgeCatalogYAML string
