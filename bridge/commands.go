package bridge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smallnest/wechat-intercom/channels"
	"github.com/smallnest/wechat-intercom/identity"
	"github.com/smallnest/wechat-intercom/internal/logger"
)

// Verb 管理命令
type Verb string

const (
	VerbStart Verb = "start"
	VerbStop  Verb = "stop"
	VerbList  Verb = "list"
)

// verbAliases 命令词到 Verb 的映射，英文别名不区分大小写
var verbAliases = map[string]Verb{
	"上线":    VerbStart,
	"下线":    VerbStop,
	"查看":    VerbList,
	"start": VerbStart,
	"stop":  VerbStop,
	"list":  VerbList,
}

// AdminCommand 解析后的管理命令
type AdminCommand struct {
	Verb   Verb
	Client string // list 命令不使用
}

// ParseCommand 解析管理机器人发来的文本，无法识别时返回 false
func ParseCommand(text string) (AdminCommand, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return AdminCommand{}, false
	}

	verb, ok := verbAliases[strings.ToLower(fields[0])]
	if !ok {
		return AdminCommand{}, false
	}

	cmd := AdminCommand{Verb: verb}
	if verb != VerbList {
		cmd.Client = identity.DefaultClient
		if len(fields) > 1 {
			cmd.Client = fields[1]
		}
	}
	return cmd, true
}

// HandleAdminCommand 执行管理命令并通过 Deliver 回复结果，未识别的命令直接忽略
func (s *Service) HandleAdminCommand(ctx context.Context, text string) {
	cmd, ok := ParseCommand(text)
	if !ok {
		logger.FromContext(ctx).Debug("Ignore unrecognized admin command", zap.String("text", text))
		return
	}
	s.metrics.adminCommand(string(cmd.Verb))

	report := s.RunAdminCommand(ctx, cmd)
	if report != "" {
		s.notifyBot(ctx, report)
	}
}

// RunAdminCommand 执行命令并返回需要回报的文本，空字符串表示无需回报
func (s *Service) RunAdminCommand(ctx context.Context, cmd AdminCommand) string {
	log := logger.FromContext(ctx).With(zap.String("verb", string(cmd.Verb)), zap.String("client", cmd.Client))

	switch cmd.Verb {
	case VerbStart:
		result, err := s.wechat.StartClient(ctx, cmd.Client)
		if err != nil || !result.OK() {
			s.metrics.upstreamFailure("wechat.start_client")
			log.Warn("Failed to start client", zap.Error(err), zap.Int64("code", result.Code))
			return fmt.Sprintf("%s 上线失败", cmd.Client)
		}
		if result.Status == channels.StatusClientAlreadyExists {
			return fmt.Sprintf("%s 已在线上（有可能正在等待扫码登录）", cmd.Client)
		}
		// 成功后网关会异步推送 input_qrcode / login 事件
		log.Info("Client starting")
		return ""

	case VerbStop:
		result, err := s.wechat.StopClient(ctx, cmd.Client)
		if err != nil || !result.OK() {
			s.metrics.upstreamFailure("wechat.stop_client")
			log.Warn("Failed to stop client", zap.Error(err), zap.Int64("code", result.Code))
			return fmt.Sprintf("%s 下线失败（可能当前不在线上）", cmd.Client)
		}
		if result.Status == channels.StatusSuccess {
			return fmt.Sprintf("%s 已下线", cmd.Client)
		}
		return ""

	case VerbList:
		statuses, err := s.wechat.CheckClient(ctx)
		if err != nil {
			s.metrics.upstreamFailure("wechat.check_client")
			log.Warn("Failed to check clients", zap.Error(err))
			return ""
		}
		return FormatClientStatuses(statuses)
	}
	return ""
}

// FormatClientStatuses 每个客户端一行 "<name>: <state>"，保持网关返回顺序
func FormatClientStatuses(statuses []channels.ClientStatus) string {
	lines := make([]string, 0, len(statuses))
	for _, st := range statuses {
		lines = append(lines, st.Name()+": "+st.State)
	}
	return strings.Join(lines, "\n")
}
