package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/candidates"
	"github.com/spigell/ai-interviewer/internal/interview"
	"github.com/spigell/ai-interviewer/internal/resume"
	"github.com/spigell/ai-interviewer/internal/session"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errExit = errors.New("exit requested")

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("resume", "r", "", "PDF or DOCX résumé to prefill the candidate details")
}

func runInterview(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	var fields resume.Fields
	if path := cmd.Flag("resume").Value.String(); path != "" {
		parsed, err := parseResumeFile(path)
		if err != nil {
			logger.Fatal("reading the resume", zap.String("file", path), zap.Error(err))
		}
		fields = parsed
		logger.Info("resume parsed",
			zap.String("name", fields.Name),
			zap.String("email", fields.Email),
			zap.String("phone", fields.Phone),
		)
	}

	input, err := confirmCandidate(fields)
	if err != nil {
		if errors.Is(err, errExit) {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
		logger.Fatal("exiting", zap.Error(err))
	}

	svc, store, closeStore, err := newService(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the interview service", zap.Error(err))
	}
	defer closeStore()

	reg, err := candidates.NewRegistry(store, logger).Register(ctx, input)
	if err != nil {
		logger.Fatal("registering the candidate", zap.Error(err))
	}
	logger.Info(reg.Message, zap.String("session_id", reg.SessionID))

	if err := askQuestions(ctx, svc, reg.SessionID); err != nil {
		logger.Fatal("running the interview", zap.Error(err))
	}

	summary, err := svc.Summarize(ctx, reg.SessionID)
	if err != nil {
		logger.Fatal("summarizing the interview", zap.Error(err))
	}

	fmt.Printf("\nFinal score: %d (%s scoring)\n\n%s\n", summary.Score, svc.Policy(), summary.Summary)
}

func parseResumeFile(path string) (resume.Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return resume.Fields{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return resume.Fields{}, err
	}

	return resume.Parse(path, "", f, info.Size())
}

func confirmCandidate(fields resume.Fields) (candidates.RegisterInput, error) {
	required := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("Name is required")
		}
		return nil
	}

	values := []*string{&fields.Name, &fields.Email, &fields.Phone}
	for i, label := range []string{"Name", "Email", "Phone"} {
		prompt := promptui.Prompt{
			Label:     label,
			Default:   *values[i],
			AllowEdit: true,
		}
		if label == "Name" {
			prompt.Validate = required
		}

		value, err := prompt.Run()
		if err != nil {
			return candidates.RegisterInput{}, err
		}
		*values[i] = strings.TrimSpace(value)
	}

	confirm := promptui.Select{
		Label: fmt.Sprintf("Start the interview for %s?", fields.Name),
		Items: []string{PromptYes, PromptNo},
	}
	_, answer, err := confirm.Run()
	if err != nil {
		return candidates.RegisterInput{}, err
	}
	if answer == PromptNo {
		return candidates.RegisterInput{}, errExit
	}

	return candidates.RegisterInput{Name: fields.Name, Email: fields.Email, Phone: fields.Phone}, nil
}

func askQuestions(ctx context.Context, svc *interview.Service, sessionID string) error {
	for {
		question, err := svc.GenerateQuestion(ctx, interview.QuestionInput{SessionID: sessionID})
		if errors.Is(err, interview.ErrInterviewCompleted) {
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("\nQuestion %d of %d (%s, %d seconds)\n%s\n\n",
			question.Step, session.Steps, question.Difficulty, question.Timer, question.Question)

		prompt := promptui.Prompt{Label: "Your answer"}
		answer, err := prompt.Run()
		if err != nil {
			return err
		}

		result, err := svc.SubmitAnswer(ctx, interview.AnswerInput{SessionID: sessionID, Answer: answer})
		if err != nil {
			return err
		}

		line := fmt.Sprintf("Score: %d", result.Score)
		if result.Late {
			line += " (answered after the time limit)"
		}
		if result.Feedback != "" {
			line += " - " + result.Feedback
		}
		fmt.Println(line)

		if result.Completed {
			return nil
		}
	}
}
