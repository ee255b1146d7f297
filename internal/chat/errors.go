package chat

import (
	"errors"
	"fmt"

	"github.com/quantbao/stockchat-backend/internal/llm"
)

// UserFacingError maps a model-endpoint failure to the message shown
// in the conversation. The match is an exhaustive switch over the
// error's tagged kind, not a scan of its text.
func UserFacingError(err error) string {
	var modelErr *llm.ModelError
	if !errors.As(err, &modelErr) {
		return fmt.Sprintf("❌ 发生错误: %v", err)
	}

	switch modelErr.Kind {
	case llm.KindAuth:
		return "❌ 模型API密钥无效或已过期，请检查配置。"
	case llm.KindRateLimit:
		return "❌ API调用频率超限，请稍后再试。"
	case llm.KindQuota:
		return "❌ API余额不足，请充值后再试。"
	case llm.KindServer:
		return "❌ 服务器错误，请稍后再试。"
	case llm.KindNetwork:
		return "❌ 网络错误，请检查网络连接。"
	case llm.KindBadResponse:
		return "❌ 模型返回数据格式错误，请稍后再试。"
	default:
		return fmt.Sprintf("❌ 发生错误: %s", modelErr.Message)
	}
}
