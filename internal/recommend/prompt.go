package recommend

import (
	"strings"

	"github.com/54b3r/coursematch/internal/rag"
)

// NoMatchAnswer is returned verbatim when no course clears the similarity
// thresholds.
const NoMatchAnswer = "죄송합니다. 관련된 강의를 찾을 수 없습니다."

// contextSeparator joins retrieved chunks in the prompt.
const contextSeparator = "\n\n"

const promptTemplate = `당신은 대학교 강의 추천 시스템입니다. 주어진 강의계획서 정보를 바탕으로 학생들에게 적절한 강의를 추천해주세요.

강의계획서 정보:
{context}

질문: {question}

답변할 때 다음 사항을 고려해주세요:
1. 강의계획서에 있는 구체적인 정보를 바탕으로 답변해주세요.
2. 교과목명, 담당교수, 이수구분, 학과/학년 등 기본 정보를 반드시 언급해주세요.
3. 수업 목표를 자세히 분석하여 강의의 핵심 내용과 특징을 설명해주세요.
4. 수업 목표에서 강의의 주요 학습 내용, 기대 효과, 실무 적용 가능성 등을 파악하여 설명해주세요.
5. 강의 내용, 평가 방법, 교재 정보 등 구체적인 정보를 포함해주세요.
6. 교수님의 이메일과 연락처가 있다면 함께 제공해주세요.
7. 질문과 관련성이 높은 강의만 추천해주세요. 관련성이 낮은 강의는 제외해주세요.
8. 강의 내용이 질문의 주제와 직접적으로 관련이 있는지 확인해주세요.
9. 모르는 정보에 대해서는 추측하지 말고, 있는 정보만 바탕으로 답변해주세요.
10. 수업 목표를 바탕으로 해당 강의가 질문자의 요구에 얼마나 부합하는지 설명해주세요.
11. 각 강의의 장단점을 분석하여 학생이 선택할 때 고려해야 할 사항을 제시해주세요.
12. 강의의 난이도와 선수과목 요구사항을 확인하여 적절한 학생 수준을 제안해주세요.
13. 강의의 실용성과 취업/진로 연계성을 분석해주세요.
14. 강의의 특별한 특징이나 장점을 강조해주세요.
15. 학생의 관심사나 목표와 강의의 연관성을 구체적으로 설명해주세요.

답변:`

// buildContext joins result contents in relevance order.
func buildContext(results []rag.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Content
	}
	return strings.Join(parts, contextSeparator)
}

// buildPrompt fills the template. Substituted text is not rescanned, so a
// chunk containing "{question}" is left alone.
func buildPrompt(context, question string) string {
	return strings.NewReplacer("{context}", context, "{question}", question).Replace(promptTemplate)
}
